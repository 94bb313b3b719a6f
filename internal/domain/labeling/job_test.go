package labeling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLabelJob(t *testing.T) {
	tests := []struct {
		name        string
		formatID    FormatID
		labelCount  int
		expectError bool
		errorMsg    string
	}{
		{name: "valid job", formatID: FormatStandard30, labelCount: 4},
		{name: "empty format", formatID: "", labelCount: 4, expectError: true, errorMsg: "Format ID cannot be empty"},
		{name: "no labels", formatID: FormatShelf80, labelCount: 0, expectError: true, errorMsg: "at least one label"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NewLabelJob(tt.formatID, "Labels", tt.labelCount, 1)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, JobStatusPending, job.Status)
			assert.NotEmpty(t, job.ID)
		})
	}
}

func TestLabelJob_Lifecycle(t *testing.T) {
	job, err := NewLabelJob(FormatStandard30, "Labels", 3, 1)
	require.NoError(t, err)

	require.NoError(t, job.StartRendering())
	assert.Equal(t, JobStatusRendering, job.Status)

	assert.Error(t, job.Complete(""))
	require.NoError(t, job.Complete("/files/labels/job.pdf"))
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, "/files/labels/job.pdf", job.PdfURL)
	require.NotNil(t, job.CompletedAt)
	assert.True(t, job.IsTerminal())

	assert.Error(t, job.Fail("late"))
	assert.Error(t, job.StartRendering())
}

func TestLabelJob_FailFromPending(t *testing.T) {
	job, err := NewLabelJob(FormatThermal78x25, "", 1, 1)
	require.NoError(t, err)

	require.NoError(t, job.Fail("chrome unavailable"))
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "chrome unavailable", job.ErrorMessage)
	assert.Error(t, job.Complete("/x.pdf"))
}

func TestJobStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		want     bool
	}{
		{JobStatusPending, JobStatusRendering, true},
		{JobStatusPending, JobStatusFailed, true},
		{JobStatusPending, JobStatusCompleted, false},
		{JobStatusRendering, JobStatusCompleted, true},
		{JobStatusCompleted, JobStatusFailed, false},
		{JobStatusFailed, JobStatusRendering, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.False(t, JobStatus("DONE").IsValid())
}
