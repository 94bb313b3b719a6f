package labeling

import (
	"fmt"

	"github.com/erp/labelprint/internal/domain/shared"
	"github.com/google/uuid"
)

// FormatID identifies a label format in the catalogue
type FormatID string

const (
	FormatThermal78x25 FormatID = "THERMAL_78X25"
	FormatStandard30   FormatID = "STANDARD_30"
	FormatLarge10      FormatID = "LARGE_10"
	FormatShelf80      FormatID = "SHELF_80"
	FormatCustom       FormatID = "CUSTOM"
)

// String returns the string representation of FormatID
func (id FormatID) String() string {
	return string(id)
}

// PageSize is the physical page the labels are printed on
type PageSize string

const (
	PageSizeLetter PageSize = "letter"
	// PageSizeCustom means the page is exactly one label (roll stock)
	PageSizeCustom PageSize = "custom"
)

// LayoutKind selects the rendering layout for a format
type LayoutKind string

const (
	LayoutThermal LayoutKind = "thermal"
	LayoutGrid    LayoutKind = "grid"
)

// FontTier selects the type scale used by the grid layout
type FontTier string

const (
	FontTierRegular FontTier = "regular"
	FontTierCompact FontTier = "compact"
)

// Letter page dimensions in millimetres
const (
	LetterWidthMM  = 215.9
	LetterHeightMM = 279.4
)

// formatNamespace seeds the stable format UUIDs
var formatNamespace = uuid.MustParse("6f1c2b0e-4d4a-5b8e-9a37-0c2f51e4a7d1")

// LabelFormat describes one kind of label stock. Dimensions are in millimetres.
type LabelFormat struct {
	ID           FormatID   `json:"id"`
	Name         string     `json:"name"`
	Width        float64    `json:"width"`
	Height       float64    `json:"height"`
	LabelsPerRow int        `json:"labels_per_row"`
	RowsPerPage  int        `json:"rows_per_page"`
	PageSize     PageSize   `json:"page_size"`
	Layout       LayoutKind `json:"layout"`
	Description  string     `json:"description"`
}

var catalogue = []LabelFormat{
	{
		ID:           FormatThermal78x25,
		Name:         "Thermal 78×25mm",
		Width:        78,
		Height:       25,
		LabelsPerRow: 1,
		RowsPerPage:  1,
		PageSize:     PageSizeCustom,
		Layout:       LayoutThermal,
		Description:  "Single thermal roll label for receipt-style label printers",
	},
	{
		ID:           FormatStandard30,
		Name:         "Standard (30 per sheet)",
		Width:        66.7,
		Height:       25.4,
		LabelsPerRow: 3,
		RowsPerPage:  10,
		PageSize:     PageSizeLetter,
		Layout:       LayoutGrid,
		Description:  "Address-size labels, 3 across and 10 down on letter paper",
	},
	{
		ID:           FormatLarge10,
		Name:         "Large (10 per sheet)",
		Width:        101.6,
		Height:       50.8,
		LabelsPerRow: 2,
		RowsPerPage:  5,
		PageSize:     PageSizeLetter,
		Layout:       LayoutGrid,
		Description:  "Large product labels, 2 across and 5 down on letter paper",
	},
	{
		ID:           FormatShelf80,
		Name:         "Shelf tag (80 per sheet)",
		Width:        44.5,
		Height:       12.7,
		LabelsPerRow: 4,
		RowsPerPage:  20,
		PageSize:     PageSizeLetter,
		Layout:       LayoutGrid,
		Description:  "Small shelf-edge tags, 4 across and 20 down on letter paper",
	},
	{
		ID:           FormatCustom,
		Name:         "Custom",
		Width:        101.6,
		Height:       42.3,
		LabelsPerRow: 2,
		RowsPerPage:  6,
		PageSize:     PageSizeLetter,
		Layout:       LayoutGrid,
		Description:  "User-adjustable label size on letter paper",
	},
}

// AllFormats returns the catalogue in display order
func AllFormats() []LabelFormat {
	out := make([]LabelFormat, len(catalogue))
	copy(out, catalogue)
	return out
}

// FormatByID looks up a catalogue format
func FormatByID(id FormatID) (LabelFormat, error) {
	for _, f := range catalogue {
		if f.ID == id {
			return f, nil
		}
	}
	return LabelFormat{}, shared.NewDomainError("FORMAT_NOT_FOUND",
		fmt.Sprintf("Unknown label format: %s", id))
}

// DefaultFormat is the format used when a request names none
func DefaultFormat() LabelFormat {
	f, _ := FormatByID(FormatStandard30)
	return f
}

// NewCustomFormat resizes the CUSTOM format. Zero arguments keep the CUSTOM default.
func NewCustomFormat(width, height float64, perRow, rows int) (LabelFormat, error) {
	f, _ := FormatByID(FormatCustom)
	if width != 0 {
		f.Width = width
	}
	if height != 0 {
		f.Height = height
	}
	if perRow != 0 {
		f.LabelsPerRow = perRow
	}
	if rows != 0 {
		f.RowsPerPage = rows
	}
	if err := f.Validate(); err != nil {
		return LabelFormat{}, err
	}
	return f, nil
}

// Validate checks the geometric invariants of the format
func (f LabelFormat) Validate() error {
	if f.LabelsPerRow < 1 {
		return shared.NewDomainError("INVALID_FORMAT", "Labels per row must be at least 1")
	}
	if f.RowsPerPage < 1 {
		return shared.NewDomainError("INVALID_FORMAT", "Rows per page must be at least 1")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return shared.NewDomainError("INVALID_FORMAT", "Label width and height must be positive")
	}
	if f.PageSize == PageSizeLetter {
		if float64(f.LabelsPerRow)*f.Width > LetterWidthMM {
			return shared.NewDomainError("INVALID_FORMAT", "Labels do not fit across a letter page")
		}
		if float64(f.RowsPerPage)*f.Height > LetterHeightMM {
			return shared.NewDomainError("INVALID_FORMAT", "Rows do not fit down a letter page")
		}
	}
	return nil
}

// IsThermal returns true for single-label roll formats
func (f LabelFormat) IsThermal() bool {
	return f.Layout == LayoutThermal
}

// FontTier returns the type scale for the format
func (f LabelFormat) FontTier() FontTier {
	if f.ID == FormatShelf80 {
		return FontTierCompact
	}
	return FontTierRegular
}

// LabelsPerPage returns how many labels fit on one page
func (f LabelFormat) LabelsPerPage() int {
	return f.LabelsPerRow * f.RowsPerPage
}

// StableID returns a deterministic UUID for the format id
func (f LabelFormat) StableID() uuid.UUID {
	return uuid.NewSHA1(formatNamespace, []byte(f.ID))
}
