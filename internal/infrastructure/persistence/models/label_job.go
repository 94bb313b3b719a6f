package models

import (
	"time"

	"github.com/erp/labelprint/internal/domain/labeling"
)

// LabelJobModel is the GORM model for the label_jobs table
type LabelJobModel struct {
	BaseModel
	FormatID     string     `gorm:"column:format_id;type:varchar(32);not null"`
	Title        string     `gorm:"type:varchar(200)"`
	LabelCount   int        `gorm:"column:label_count;not null"`
	PageCount    int        `gorm:"column:page_count;not null"`
	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PdfURL       string     `gorm:"column:pdf_url;type:text"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
}

// TableName returns the table name for LabelJobModel
func (LabelJobModel) TableName() string {
	return "label_jobs"
}

// ToDomain converts the model to a domain LabelJob
func (m *LabelJobModel) ToDomain() *labeling.LabelJob {
	return &labeling.LabelJob{
		BaseEntity:   m.BaseModel.ToDomain(),
		FormatID:     labeling.FormatID(m.FormatID),
		Title:        m.Title,
		LabelCount:   m.LabelCount,
		PageCount:    m.PageCount,
		Status:       labeling.JobStatus(m.Status),
		PdfURL:       m.PdfURL,
		ErrorMessage: m.ErrorMessage,
		CompletedAt:  m.CompletedAt,
	}
}

// LabelJobModelFromDomain creates a LabelJobModel from a domain LabelJob
func LabelJobModelFromDomain(j *labeling.LabelJob) *LabelJobModel {
	m := &LabelJobModel{
		FormatID:     string(j.FormatID),
		Title:        j.Title,
		LabelCount:   j.LabelCount,
		PageCount:    j.PageCount,
		Status:       string(j.Status),
		PdfURL:       j.PdfURL,
		ErrorMessage: j.ErrorMessage,
		CompletedAt:  j.CompletedAt,
	}
	m.FromDomainBaseEntity(j.BaseEntity)
	return m
}
