package printing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/labelprint/internal/domain/labeling"
)

// PrintSurface takes a finished document to an output device or store
type PrintSurface interface {
	Dispatch(ctx context.Context, doc *Document) error
}

// DiscardSurface logs documents and drops them
type DiscardSurface struct {
	logger *zap.Logger
}

// NewDiscardSurface creates a surface that only logs
func NewDiscardSurface(logger *zap.Logger) *DiscardSurface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscardSurface{logger: logger}
}

// Dispatch implements PrintSurface
func (s *DiscardSurface) Dispatch(ctx context.Context, doc *Document) error {
	s.logger.Info("Label document discarded",
		zap.String("job_id", doc.JobID.String()),
		zap.String("format", doc.Format.ID.String()),
		zap.Int("labels", doc.LabelCount),
		zap.Int("pages", doc.PageCount))
	return nil
}

// PDFPrintSurface renders documents to PDF, stores them and records a label job
type PDFPrintSurface struct {
	renderer PDFRenderer
	storage  PDFStorage
	jobs     labeling.LabelJobRepository
	timeout  time.Duration
	logger   *zap.Logger
}

// PDFPrintSurfaceOption configures a PDFPrintSurface
type PDFPrintSurfaceOption func(*PDFPrintSurface)

// WithJobRepository records each dispatch as a LabelJob
func WithJobRepository(jobs labeling.LabelJobRepository) PDFPrintSurfaceOption {
	return func(s *PDFPrintSurface) {
		s.jobs = jobs
	}
}

// WithRenderTimeout bounds each PDF render
func WithRenderTimeout(timeout time.Duration) PDFPrintSurfaceOption {
	return func(s *PDFPrintSurface) {
		s.timeout = timeout
	}
}

// WithSurfaceLogger sets the surface logger
func WithSurfaceLogger(logger *zap.Logger) PDFPrintSurfaceOption {
	return func(s *PDFPrintSurface) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPDFPrintSurface creates a PDF surface
func NewPDFPrintSurface(renderer PDFRenderer, storage PDFStorage, opts ...PDFPrintSurfaceOption) *PDFPrintSurface {
	s := &PDFPrintSurface{
		renderer: renderer,
		storage:  storage,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch renders doc to PDF and stores it. The job record follows the outcome.
func (s *PDFPrintSurface) Dispatch(ctx context.Context, doc *Document) error {
	job, err := labeling.NewLabelJob(doc.Format.ID, doc.Title, doc.LabelCount, doc.PageCount)
	if err != nil {
		return NewRenderError(ErrCodeDispatchFailed, "invalid label document", err)
	}
	if doc.JobID != uuid.Nil {
		job.ID = doc.JobID
	}
	log := s.logger.With(zap.String("job_id", job.ID.String()), zap.String("format", doc.Format.ID.String()))

	if err := job.StartRendering(); err != nil {
		return err
	}
	s.save(ctx, job, log)

	result, err := s.renderer.Render(ctx, &RenderRequest{
		HTML:    doc.HTML,
		Format:  doc.Format,
		Title:   doc.Title,
		Timeout: s.timeout,
	})
	if err != nil {
		return s.fail(ctx, job, log, err)
	}

	stored, err := s.storage.Store(ctx, &StoreRequest{JobID: job.ID, PDFData: result.PDFData})
	if err != nil {
		return s.fail(ctx, job, log, err)
	}

	if err := job.Complete(stored.URL); err != nil {
		return s.fail(ctx, job, log, err)
	}
	if !s.save(ctx, job, log) {
		// Without a job record nobody can find the PDF
		if delErr := s.storage.Delete(ctx, stored.Path); delErr != nil {
			log.Warn("Failed to remove orphaned label PDF", zap.String("path", stored.Path), zap.Error(delErr))
		}
		return NewRenderError(ErrCodeDispatchFailed, "failed to record label job", nil)
	}

	log.Info("Label PDF ready",
		zap.String("url", stored.URL),
		zap.Int("labels", doc.LabelCount),
		zap.Int("pages", result.PageCount),
		zap.Duration("render_duration", result.RenderDuration))
	return nil
}

func (s *PDFPrintSurface) fail(ctx context.Context, job *labeling.LabelJob, log *zap.Logger, cause error) error {
	log.Error("Label PDF dispatch failed", zap.Error(cause))
	if err := job.Fail(cause.Error()); err == nil {
		s.save(ctx, job, log)
	}
	return cause
}

// save persists job when a repository is configured
func (s *PDFPrintSurface) save(ctx context.Context, job *labeling.LabelJob, log *zap.Logger) bool {
	if s.jobs == nil {
		return true
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		log.Error("Failed to save label job", zap.String("status", job.Status.String()), zap.Error(err))
		return false
	}
	return true
}

var (
	_ PrintSurface = (*DiscardSurface)(nil)
	_ PrintSurface = (*PDFPrintSurface)(nil)
)
