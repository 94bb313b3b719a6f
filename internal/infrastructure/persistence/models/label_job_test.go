package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/labelprint/internal/domain/labeling"
)

func TestLabelJobModel_RoundTrip(t *testing.T) {
	job, err := labeling.NewLabelJob(labeling.FormatStandard30, "Weekly specials", 45, 2)
	require.NoError(t, err)
	require.NoError(t, job.StartRendering())
	require.NoError(t, job.Complete("/api/v1/labels/files/2026/10/x.pdf"))

	model := LabelJobModelFromDomain(job)
	assert.Equal(t, "label_jobs", model.TableName())
	assert.Equal(t, job.ID, model.ID)
	assert.Equal(t, "STANDARD_30", model.FormatID)
	assert.Equal(t, "COMPLETED", model.Status)

	back := model.ToDomain()
	assert.Equal(t, job.ID, back.ID)
	assert.Equal(t, job.FormatID, back.FormatID)
	assert.Equal(t, job.Title, back.Title)
	assert.Equal(t, job.LabelCount, back.LabelCount)
	assert.Equal(t, job.PageCount, back.PageCount)
	assert.Equal(t, job.Status, back.Status)
	assert.Equal(t, job.PdfURL, back.PdfURL)
	require.NotNil(t, back.CompletedAt)
	assert.True(t, job.CompletedAt.Equal(*back.CompletedAt))
}
