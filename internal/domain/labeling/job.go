package labeling

import (
	"time"

	"github.com/erp/labelprint/internal/domain/shared"
)

// JobStatus represents the status of a label print job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRendering JobStatus = "RENDERING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRendering, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are allowed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo checks if the status can move to target
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusRendering || target == JobStatusFailed
	case JobStatusRendering:
		return target == JobStatusCompleted || target == JobStatusFailed
	}
	return false
}

// LabelJob records one PDF label print run
type LabelJob struct {
	shared.BaseEntity
	FormatID     FormatID
	Title        string
	LabelCount   int
	PageCount    int
	Status       JobStatus
	PdfURL       string
	ErrorMessage string
	CompletedAt  *time.Time
}

// NewLabelJob creates a pending job for a composed document
func NewLabelJob(formatID FormatID, title string, labelCount, pageCount int) (*LabelJob, error) {
	if formatID == "" {
		return nil, shared.NewDomainError("INVALID_FORMAT", "Format ID cannot be empty")
	}
	if labelCount < 1 {
		return nil, shared.NewDomainError("INVALID_LABEL_COUNT", "A label job needs at least one label")
	}

	return &LabelJob{
		BaseEntity: shared.NewBaseEntity(),
		FormatID:   formatID,
		Title:      title,
		LabelCount: labelCount,
		PageCount:  pageCount,
		Status:     JobStatusPending,
	}, nil
}

// StartRendering marks the job as rendering
func (j *LabelJob) StartRendering() error {
	if !j.Status.CanTransitionTo(JobStatusRendering) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot start rendering from status: "+j.Status.String())
	}

	j.Status = JobStatusRendering
	j.Touch()
	return nil
}

// Complete marks the job as completed with the stored PDF URL
func (j *LabelJob) Complete(pdfURL string) error {
	if !j.Status.CanTransitionTo(JobStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot complete from status: "+j.Status.String())
	}
	if pdfURL == "" {
		return shared.NewDomainError("INVALID_PDF_URL", "PDF URL cannot be empty")
	}

	j.Status = JobStatusCompleted
	j.PdfURL = pdfURL
	j.Touch()
	completed := j.UpdatedAt
	j.CompletedAt = &completed
	return nil
}

// Fail marks the job as failed
func (j *LabelJob) Fail(errorMessage string) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot fail a job that is already in terminal status: "+j.Status.String())
	}

	j.Status = JobStatusFailed
	j.ErrorMessage = errorMessage
	j.Touch()
	return nil
}

// IsTerminal returns true if the job is finished
func (j *LabelJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}
