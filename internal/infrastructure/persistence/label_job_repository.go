package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/labelprint/internal/domain/labeling"
	"github.com/erp/labelprint/internal/domain/shared"
	"github.com/erp/labelprint/internal/infrastructure/persistence/models"
)

// MaxRecentJobs caps FindRecent
const MaxRecentJobs = 100

// GormLabelJobRepository implements labeling.LabelJobRepository using GORM
type GormLabelJobRepository struct {
	db *gorm.DB
}

// NewGormLabelJobRepository creates a new GormLabelJobRepository
func NewGormLabelJobRepository(db *gorm.DB) *GormLabelJobRepository {
	return &GormLabelJobRepository{db: db}
}

// Save inserts the job or updates every column of an existing row
func (r *GormLabelJobRepository) Save(ctx context.Context, job *labeling.LabelJob) error {
	return r.db.WithContext(ctx).Save(models.LabelJobModelFromDomain(job)).Error
}

// FindByID finds a job by ID
func (r *GormLabelJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*labeling.LabelJob, error) {
	var model models.LabelJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent returns up to limit jobs, newest first
func (r *GormLabelJobRepository) FindRecent(ctx context.Context, limit int) ([]labeling.LabelJob, error) {
	if limit <= 0 || limit > MaxRecentJobs {
		limit = MaxRecentJobs
	}

	var jobModels []models.LabelJobModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]labeling.LabelJob, len(jobModels))
	for i := range jobModels {
		jobs[i] = *jobModels[i].ToDomain()
	}
	return jobs, nil
}

var _ labeling.LabelJobRepository = (*GormLabelJobRepository)(nil)
