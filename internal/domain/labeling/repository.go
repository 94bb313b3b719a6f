package labeling

import (
	"context"

	"github.com/google/uuid"
)

// LabelJobRepository persists label print jobs
type LabelJobRepository interface {
	// Save creates or updates a job
	Save(ctx context.Context, job *LabelJob) error

	// FindByID returns shared.ErrNotFound when the job does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*LabelJob, error)

	// FindRecent returns the newest jobs first
	FindRecent(ctx context.Context, limit int) ([]LabelJob, error)
}
