package labeling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllFormats_Catalogue(t *testing.T) {
	tests := []struct {
		id       FormatID
		width    float64
		height   float64
		perRow   int
		rows     int
		pageSize PageSize
		layout   LayoutKind
	}{
		{FormatThermal78x25, 78, 25, 1, 1, PageSizeCustom, LayoutThermal},
		{FormatStandard30, 66.7, 25.4, 3, 10, PageSizeLetter, LayoutGrid},
		{FormatLarge10, 101.6, 50.8, 2, 5, PageSizeLetter, LayoutGrid},
		{FormatShelf80, 44.5, 12.7, 4, 20, PageSizeLetter, LayoutGrid},
		{FormatCustom, 101.6, 42.3, 2, 6, PageSizeLetter, LayoutGrid},
	}

	formats := AllFormats()
	require.Len(t, formats, len(tests))

	for i, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			f := formats[i]
			assert.Equal(t, tt.id, f.ID)
			assert.Equal(t, tt.width, f.Width)
			assert.Equal(t, tt.height, f.Height)
			assert.Equal(t, tt.perRow, f.LabelsPerRow)
			assert.Equal(t, tt.rows, f.RowsPerPage)
			assert.Equal(t, tt.pageSize, f.PageSize)
			assert.Equal(t, tt.layout, f.Layout)
			assert.NoError(t, f.Validate())
		})
	}
}

func TestAllFormats_ReturnsCopy(t *testing.T) {
	formats := AllFormats()
	formats[0].Width = 1

	f, err := FormatByID(formats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 78.0, f.Width)
}

func TestFormatByID(t *testing.T) {
	f, err := FormatByID(FormatLarge10)
	require.NoError(t, err)
	assert.Equal(t, "Large (10 per sheet)", f.Name)

	_, err = FormatByID("A4_21")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown label format")
}

func TestLabelFormat_IsThermal(t *testing.T) {
	for _, f := range AllFormats() {
		assert.Equal(t, f.ID == FormatThermal78x25, f.IsThermal(), f.ID)
	}
}

func TestLabelFormat_FontTier(t *testing.T) {
	for _, f := range AllFormats() {
		want := FontTierRegular
		if f.ID == FormatShelf80 {
			want = FontTierCompact
		}
		assert.Equal(t, want, f.FontTier(), f.ID)
	}
}

func TestLabelFormat_StableID(t *testing.T) {
	a, _ := FormatByID(FormatStandard30)
	b, _ := FormatByID(FormatStandard30)
	c, _ := FormatByID(FormatShelf80)

	assert.Equal(t, a.StableID(), b.StableID())
	assert.NotEqual(t, a.StableID(), c.StableID())
}

func TestNewCustomFormat(t *testing.T) {
	tests := []struct {
		name        string
		width       float64
		height      float64
		perRow      int
		rows        int
		expectError bool
		errorMsg    string
	}{
		{name: "defaults", expectError: false},
		{name: "three across", width: 63.5, height: 38.1, perRow: 3, rows: 7},
		{name: "negative per row", perRow: -1, expectError: true, errorMsg: "Labels per row must be at least 1"},
		{name: "negative rows", rows: -2, expectError: true, errorMsg: "Rows per page must be at least 1"},
		{name: "too wide", width: 120, perRow: 2, expectError: true, errorMsg: "do not fit across"},
		{name: "too tall", height: 60, rows: 6, expectError: true, errorMsg: "do not fit down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewCustomFormat(tt.width, tt.height, tt.perRow, tt.rows)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, FormatCustom, f.ID)
			assert.Equal(t, LayoutGrid, f.Layout)
			assert.GreaterOrEqual(t, f.LabelsPerRow, 1)
			assert.GreaterOrEqual(t, f.RowsPerPage, 1)
		})
	}
}

func TestLabelFormat_LabelsPerPage(t *testing.T) {
	f, _ := FormatByID(FormatShelf80)
	assert.Equal(t, 80, f.LabelsPerPage())
}
