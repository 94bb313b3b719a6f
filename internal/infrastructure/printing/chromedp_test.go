package printing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/labelprint/internal/domain/labeling"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.Equal(t, defaultScale, r.config.Scale)
	assert.NotNil(t, r.logger)
}

func TestBuildPrintParams(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}

	tests := []struct {
		id     labeling.FormatID
		width  float64
		height float64
	}{
		{labeling.FormatThermal78x25, 78, 25},
		{labeling.FormatStandard30, labeling.LetterWidthMM, labeling.LetterHeightMM},
		{labeling.FormatShelf80, labeling.LetterWidthMM, labeling.LetterHeightMM},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			params := r.buildPrintParams(&RenderRequest{Format: mustFormat(t, tt.id)})
			assert.InDelta(t, mmToInches(tt.width), params.paperWidth, 0.001)
			assert.InDelta(t, mmToInches(tt.height), params.paperHeight, 0.001)
			assert.Equal(t, 1.0, params.scale)
		})
	}
}

func TestBuildPrintParams_LetterIsEightAndAHalfByEleven(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}
	params := r.buildPrintParams(&RenderRequest{Format: mustFormat(t, labeling.FormatLarge10)})

	assert.InDelta(t, 8.5, params.paperWidth, 0.001)
	assert.InDelta(t, 11.0, params.paperHeight, 0.001)
}

func TestBuildCompleteHTML(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{}}
	format := mustFormat(t, labeling.FormatThermal78x25)

	complete := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, complete, r.buildCompleteHTML(&RenderRequest{HTML: complete, Format: format}))

	wrapped := r.buildCompleteHTML(&RenderRequest{HTML: `<div class="label">x</div>`, Format: format})
	assert.Contains(t, wrapped, "<!DOCTYPE html>")
	assert.Contains(t, wrapped, "size: 78mm 25mm")
	assert.Contains(t, wrapped, `<div class="label">x</div>`)
}

func TestChromedpRenderer_Render_Validation(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{}}
	ctx := context.Background()

	_, err := r.Render(ctx, nil)
	assert.Error(t, err)

	_, err = r.Render(ctx, &RenderRequest{HTML: "   ", Format: mustFormat(t, labeling.FormatLarge10)})
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	bad := mustFormat(t, labeling.FormatLarge10)
	bad.RowsPerPage = 0
	_, err = r.Render(ctx, &RenderRequest{HTML: "<p>x</p>", Format: bad})
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidFormat, renderErr.Code)
}

func TestEstimatePageCount(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Kids [1 0 R 2 0 R] >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, estimatePageCount(pdf))
	assert.Equal(t, 1, estimatePageCount([]byte("%PDF-1.4")))
}
