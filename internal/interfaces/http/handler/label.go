package handler

import (
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	labelingapp "github.com/erp/labelprint/internal/application/labeling"
	"github.com/erp/labelprint/internal/domain/labeling"
	"github.com/erp/labelprint/internal/infrastructure/logger"
	"github.com/erp/labelprint/internal/infrastructure/printing"
	"github.com/erp/labelprint/internal/interfaces/http/dto"
	"github.com/erp/labelprint/internal/interfaces/http/middleware"
)

// Default and maximum number of jobs returned by ListJobs
const (
	defaultJobListLimit = 20
	maxJobListLimit     = 100
)

var (
	yearPattern     = regexp.MustCompile(`^\d{4}$`)
	monthPattern    = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
	filenamePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.pdf$`)
)

// LabelHandler serves the price label endpoints
type LabelHandler struct {
	BaseHandler
	service *labelingapp.LabelService
	storage printing.PDFStorage
}

// NewLabelHandler creates a LabelHandler. storage may be nil when PDF output is disabled.
func NewLabelHandler(service *labelingapp.LabelService, storage printing.PDFStorage) *LabelHandler {
	return &LabelHandler{
		service: service,
		storage: storage,
	}
}

// ListFormats returns the label format catalogue
func (h *LabelHandler) ListFormats(c *gin.Context) {
	h.Success(c, h.service.Formats())
}

// Preview renders one label as an embeddable HTML fragment
func (h *LabelHandler) Preview(c *gin.Context) {
	var req labelingapp.PreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	defaults := h.service.Defaults()
	format, err := defaults.ResolveFormat(req.FormatID, req.CustomFormat)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	html, err := h.service.Preview(c.Request.Context(), req.Product.ToDomain(), defaults.ResolveOptions(req.Options), format)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, labelingapp.PreviewResponse{HTML: html})
}

// Document returns a complete printable HTML label document
func (h *LabelHandler) Document(c *gin.Context) {
	var req labelingapp.DocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	printReq, err := h.service.Defaults().ToPrintRequest(req, "")
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if len(printReq.Products) == 0 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, labelingapp.MsgNoProducts)
		return
	}

	doc, err := h.service.BuildDocument(c.Request.Context(), printReq)
	if err != nil {
		logger.L(c.Request.Context()).Warn("Label document failed", zap.Error(err))
		h.HandleDomainError(c, err)
		return
	}

	c.Header("X-Label-Count", strconv.Itoa(doc.LabelCount))
	c.Header("X-Page-Count", strconv.Itoa(doc.PageCount))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

// Print builds the document and hands it to the print surface.
// The response does not wait for the surface; 422 means nothing was dispatched.
func (h *LabelHandler) Print(c *gin.Context) {
	var req labelingapp.DocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	printReq, err := h.service.Defaults().ToPrintRequest(req, c.GetHeader(middleware.IdempotencyKeyHeader))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	result := h.service.Print(c.Request.Context(), printReq)
	if !result.Success {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodePrintFailed, result.Error, getRequestID(c))
		resp.Data = result
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(result))
}

// GetJob returns one label job
func (h *LabelHandler) GetJob(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, job)
}

// ListJobs returns the most recent label jobs
func (h *LabelHandler) ListJobs(c *gin.Context) {
	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if details := middleware.ValidationDetails(err); details != nil {
			h.ValidationError(c, details)
			return
		}
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultJobListLimit
	}
	req.Limit = min(req.Limit, maxJobListLimit)

	jobs, err := h.service.ListJobs(c.Request.Context(), req.Limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessList(c, jobs, len(jobs), req.Limit)
}

// DownloadJob redirects to the PDF of a completed job
func (h *LabelHandler) DownloadJob(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if job.Status != string(labeling.JobStatusCompleted) {
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, "PDF not available. Job status: "+job.Status)
		return
	}
	if job.PdfURL == "" {
		h.NotFound(c, "PDF file not found")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, job.PdfURL)
}

// ServeFile streams a stored label PDF. Paths follow {year}/{month}/{job_id}.pdf.
func (h *LabelHandler) ServeFile(c *gin.Context) {
	if h.storage == nil {
		h.NotFound(c, "PDF storage is not enabled")
		return
	}

	year, month, filename := c.Param("year"), c.Param("month"), c.Param("filename")
	switch {
	case !yearPattern.MatchString(year):
		h.BadRequest(c, "Invalid year format")
		return
	case !monthPattern.MatchString(month):
		h.BadRequest(c, "Invalid month format")
		return
	case !filenamePattern.MatchString(filename):
		h.BadRequest(c, "Invalid filename format")
		return
	}

	file, err := h.storage.Get(c.Request.Context(), year+"/"+month+"/"+filename)
	if err != nil {
		logger.L(c.Request.Context()).Debug("Label PDF lookup failed", zap.Error(err))
		h.NotFound(c, "PDF file not found")
		return
	}
	defer file.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", "inline; filename=\""+filename+"\"")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		logger.L(c.Request.Context()).Warn("Label PDF stream interrupted", zap.Error(err))
	}
}

func (h *LabelHandler) jobID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}
