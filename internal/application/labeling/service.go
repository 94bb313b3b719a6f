package labeling

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/erp/labelprint/internal/domain/labeling"
	"github.com/erp/labelprint/internal/domain/shared"
	infra "github.com/erp/labelprint/internal/infrastructure/printing"
	"github.com/erp/labelprint/internal/infrastructure/logger"
	"github.com/erp/labelprint/internal/infrastructure/telemetry"
)

// Messages returned in a failed PrintResult
const (
	MsgNoProducts       = "no products selected for label printing"
	MsgDuplicateRequest = "duplicate print request"
	MsgIdempotencyCheck = "could not verify print request, please retry"
)

// Reasons recorded when Print dispatches nothing
const (
	refusedNoProducts  = "no_products"
	refusedBuildFailed = "build_failed"
	refusedIdempotency = "idempotency_error"
	refusedDuplicate   = "duplicate"
)

// LabelService drives label previews, documents and print runs.
// Every call builds its own label sequence; the service holds no per-request state.
type LabelService struct {
	formatter   *labeling.Formatter
	renderer    *infra.LabelRenderer
	builder     *infra.DocumentBuilder
	surface     infra.PrintSurface
	idempotency shared.IdempotencyStore
	jobs        labeling.LabelJobRepository
	defaults    Defaults
	metrics     *telemetry.LabelMetrics
	logger      *zap.Logger

	dispatches sync.WaitGroup
}

// Option configures a LabelService
type Option func(*LabelService)

// WithPrintSurface sets where finished print documents go
func WithPrintSurface(surface infra.PrintSurface) Option {
	return func(s *LabelService) {
		s.surface = surface
	}
}

// WithIdempotencyStore enables Idempotency-Key handling on Print
func WithIdempotencyStore(store shared.IdempotencyStore) Option {
	return func(s *LabelService) {
		s.idempotency = store
	}
}

// WithJobRepository enables label job lookups
func WithJobRepository(jobs labeling.LabelJobRepository) Option {
	return func(s *LabelService) {
		s.jobs = jobs
	}
}

// WithDefaults sets deployment-wide label settings
func WithDefaults(d Defaults) Option {
	return func(s *LabelService) {
		s.defaults = d
	}
}

// WithMetrics records document builds and print outcomes
func WithMetrics(m *telemetry.LabelMetrics) Option {
	return func(s *LabelService) {
		s.metrics = m
	}
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) Option {
	return func(s *LabelService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewLabelService creates a LabelService. Without a print surface, printed
// documents are logged and discarded.
func NewLabelService(formatter *labeling.Formatter, renderer *infra.LabelRenderer, builder *infra.DocumentBuilder, opts ...Option) *LabelService {
	s := &LabelService{
		formatter: formatter,
		renderer:  renderer,
		builder:   builder,
		defaults:  DefaultDefaults(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.surface == nil {
		s.surface = infra.NewDiscardSurface(s.logger)
	}
	if s.defaults.IdempotencyTTL <= 0 {
		s.defaults.IdempotencyTTL = shared.DefaultIdempotencyTTL
	}
	if s.defaults.MaxLabels <= 0 {
		s.defaults.MaxLabels = labeling.DefaultMaxLabels
	}
	return s
}

// Defaults returns the label settings requests are resolved against
func (s *LabelService) Defaults() Defaults {
	return s.defaults
}

// Formats returns the label format catalogue
func (s *LabelService) Formats() []FormatResponse {
	formats := labeling.AllFormats()
	out := make([]FormatResponse, len(formats))
	for i, f := range formats {
		out[i] = ToFormatResponse(f)
	}
	return out
}

// Preview renders a single label inside a scoped fragment for inline display
func (s *LabelService) Preview(ctx context.Context, product labeling.ProductRecord, options labeling.LabelOptions, format labeling.LabelFormat) (html string, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "labeling", "Preview",
		attribute.String("labels.format", format.ID.String()),
		attribute.String("labels.product_id", product.ID))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()
	defer recoverAsError(&err)

	if err := format.Validate(); err != nil {
		return "", err
	}

	start := time.Now()
	label := s.formatter.Format(product, options)
	fragment, err := s.renderer.Render(label, format)
	if err != nil {
		return "", err
	}

	html, err = s.builder.Preview(fragment, format)
	if err != nil {
		return "", err
	}
	s.metrics.RecordBuild(ctx, telemetry.LabelOpPreview, format.ID.String(), time.Since(start))
	logger.WithLogger(ctx, s.logger).Debug("Label preview rendered", zap.String("format", format.ID.String()))
	return html, nil
}

// BuildDocument runs expand, format, render, compose and build for req
func (s *LabelService) BuildDocument(ctx context.Context, req PrintRequest) (doc *infra.Document, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "labeling", "BuildDocument",
		attribute.String("labels.format", req.Format.ID.String()),
		attribute.Int("labels.products", len(req.Products)))
	defer span.End()

	start := time.Now()
	doc, err = s.buildDocument(req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.metrics.RecordBuild(ctx, telemetry.LabelOpDocument, doc.Format.ID.String(), time.Since(start))

	span.SetAttributes(
		attribute.Int("labels.count", doc.LabelCount),
		attribute.Int("labels.pages", doc.PageCount))
	logger.WithLogger(ctx, s.logger).Debug("Label document built",
		zap.String("format", doc.Format.ID.String()),
		zap.Int("labels", doc.LabelCount),
		zap.Int("pages", doc.PageCount))
	return doc, nil
}

func (s *LabelService) buildDocument(req PrintRequest) (doc *infra.Document, err error) {
	defer recoverAsError(&err)

	if err := req.Format.Validate(); err != nil {
		return nil, err
	}
	if err := req.Quantities.CheckLimit(req.Products, s.defaults.MaxLabels); err != nil {
		return nil, err
	}

	expanded := labeling.ExpandProducts(req.Products, req.Quantities)
	labels := s.formatter.FormatAll(expanded, req.Options)
	sheet := labeling.Compose(labels, req.Format)

	rendered, err := labeling.Map(sheet, func(l labeling.FormattedLabel) (template.HTML, error) {
		return s.renderer.Render(l, req.Format)
	})
	if err != nil {
		return nil, err
	}

	return s.builder.Build(rendered, req.Format, req.Title)
}

// Print builds the document and hands it to the print surface without waiting.
// Every failure, panics included, is reported through the returned PrintResult;
// nothing is dispatched unless the document was fully built.
func (s *LabelService) Print(ctx context.Context, req PrintRequest) *PrintResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "labeling", "Print",
		attribute.String("labels.format", req.Format.ID.String()),
		attribute.Int("labels.products", len(req.Products)))
	defer span.End()
	log := logger.WithLogger(ctx, s.logger)

	if len(req.Products) == 0 {
		s.metrics.RecordRefused(ctx, refusedNoProducts)
		return &PrintResult{Success: false, Error: MsgNoProducts}
	}

	start := time.Now()
	doc, err := s.buildDocument(req)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordRefused(ctx, refusedBuildFailed)
		log.Warn("Label print failed", zap.Error(err))
		return &PrintResult{Success: false, Error: humanMessage(err)}
	}
	s.metrics.RecordBuild(ctx, telemetry.LabelOpPrint, doc.Format.ID.String(), time.Since(start))

	if req.IdempotencyKey != "" && s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, req.IdempotencyKey, s.defaults.IdempotencyTTL)
		if err != nil {
			telemetry.RecordError(span, err)
			s.metrics.RecordRefused(ctx, refusedIdempotency)
			log.Error("Idempotency check failed", zap.Error(err))
			return &PrintResult{Success: false, LabelCount: doc.LabelCount, Error: MsgIdempotencyCheck}
		}
		if !fresh {
			s.metrics.RecordRefused(ctx, refusedDuplicate)
			log.Info("Duplicate print request refused", zap.String("idempotency_key", req.IdempotencyKey))
			return &PrintResult{Success: false, LabelCount: doc.LabelCount, Error: MsgDuplicateRequest}
		}
	}

	doc.JobID = uuid.New()
	span.SetAttributes(
		attribute.String("labels.job_id", doc.JobID.String()),
		attribute.Int("labels.count", doc.LabelCount))
	telemetry.SetOK(span)

	s.dispatch(ctx, doc)
	s.metrics.RecordPrinted(ctx, doc.Format.ID.String(), doc.LabelCount)

	log.Info("Label document dispatched",
		zap.String("job_id", doc.JobID.String()),
		zap.String("format", doc.Format.ID.String()),
		zap.Int("labels", doc.LabelCount),
		zap.Int("pages", doc.PageCount))

	return &PrintResult{
		Success:    true,
		LabelCount: doc.LabelCount,
		JobID:      doc.JobID.String(),
	}
}

// dispatch hands doc to the surface on a goroutine detached from the request.
func (s *LabelService) dispatch(ctx context.Context, doc *infra.Document) {
	dctx := logger.WithJobID(context.WithoutCancel(ctx), doc.JobID.String())

	s.dispatches.Add(1)
	go func() {
		defer s.dispatches.Done()
		log := logger.WithLogger(dctx, s.logger)
		defer func() {
			if r := recover(); r != nil {
				log.Error("Print surface panicked", zap.Any("panic", r), zap.Stack("stacktrace"))
			}
		}()

		if err := s.surface.Dispatch(dctx, doc); err != nil {
			log.Warn("Print surface dispatch failed", zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight dispatches finish or ctx is done.
func (s *LabelService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.dispatches.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetJob returns a recorded label job
func (s *LabelService) GetJob(ctx context.Context, id uuid.UUID) (*LabelJobResponse, error) {
	if s.jobs == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Label job not found")
	}
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Label job not found")
		}
		return nil, fmt.Errorf("failed to get label job: %w", err)
	}
	resp := ToLabelJobResponse(job)
	return &resp, nil
}

// ListJobs returns the most recent label jobs, newest first
func (s *LabelService) ListJobs(ctx context.Context, limit int) ([]LabelJobResponse, error) {
	if s.jobs == nil {
		return []LabelJobResponse{}, nil
	}
	jobs, err := s.jobs.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list label jobs: %w", err)
	}
	out := make([]LabelJobResponse, len(jobs))
	for i := range jobs {
		out[i] = ToLabelJobResponse(&jobs[i])
	}
	return out, nil
}

// recoverAsError turns a panic in the label pipeline into an error
func recoverAsError(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("label generation failed: %v", r)
	}
}

// humanMessage extracts the caller-facing message from a pipeline error
func humanMessage(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	var renderErr *infra.RenderError
	if errors.As(err, &renderErr) {
		return renderErr.Message
	}
	return err.Error()
}
