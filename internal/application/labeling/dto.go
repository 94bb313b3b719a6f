package labeling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/labelprint/internal/domain/labeling"
	"github.com/erp/labelprint/internal/domain/shared"
)

// =============================================================================
// Request DTOs
// =============================================================================

// FlexibleID accepts product IDs sent as either JSON strings or numbers
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// ProductInput is one product record as sent by the caller
type ProductInput struct {
	ID           FlexibleID       `json:"id" binding:"required"`
	Name         string           `json:"name" binding:"max=500"`
	Price        decimal.Decimal  `json:"price"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	Barcode      string           `json:"barcode" binding:"max=64"`
	SKU          string           `json:"sku" binding:"max=64"`
	Unit         string           `json:"unit" binding:"max=32"`
	Description  string           `json:"description" binding:"max=1000"`
	CategoryName string           `json:"category_name" binding:"max=200"`
}

// ToDomain converts the input to a ProductRecord
func (p ProductInput) ToDomain() labeling.ProductRecord {
	return labeling.ProductRecord{
		ID:           string(p.ID),
		Name:         p.Name,
		Price:        p.Price,
		CostPrice:    p.CostPrice,
		Barcode:      p.Barcode,
		SKU:          p.SKU,
		Unit:         p.Unit,
		Description:  p.Description,
		CategoryName: p.CategoryName,
	}
}

// LabelOptionsInput carries label options. ShowBarcode and ShowUnit default to
// true when omitted; every other flag defaults to false.
type LabelOptionsInput struct {
	ShowBarcode     *bool             `json:"show_barcode"`
	ShowCostPrice   bool              `json:"show_cost_price"`
	ShowDescription bool              `json:"show_description"`
	ShowCategory    bool              `json:"show_category"`
	ShowUnit        *bool             `json:"show_unit"`
	ShowStoreName   bool              `json:"show_store_name"`
	StoreName       string            `json:"store_name" binding:"max=100"`
	ShowExpiryDate  bool              `json:"show_expiry_date"`
	ExpiryDate      string            `json:"expiry_date" binding:"max=32"`
	ShowBatchNumber bool              `json:"show_batch_number"`
	BatchNumber     string            `json:"batch_number" binding:"max=64"`
	ShowPromotion   bool              `json:"show_promotion"`
	PromotionText   string            `json:"promotion_text" binding:"max=64"`
	WasPrice        *decimal.Decimal  `json:"was_price"`
	CurrencySymbol  string            `json:"currency_symbol" binding:"max=8"`
	CustomFields    map[string]string `json:"custom_fields"`
}

// CustomFormatInput adjusts the CUSTOM format; zero fields keep its defaults
type CustomFormatInput struct {
	Width        float64 `json:"width" binding:"gte=0"`
	Height       float64 `json:"height" binding:"gte=0"`
	LabelsPerRow int     `json:"labels_per_row" binding:"gte=0"`
	RowsPerPage  int     `json:"rows_per_page" binding:"gte=0"`
}

// PreviewRequest asks for a single-label preview fragment
type PreviewRequest struct {
	Product      ProductInput       `json:"product" binding:"required"`
	Options      *LabelOptionsInput `json:"options"`
	FormatID     string             `json:"format_id"`
	CustomFormat *CustomFormatInput `json:"custom_format"`
}

// DocumentRequest asks for a full label document or print run
type DocumentRequest struct {
	Products     []ProductInput     `json:"products" binding:"dive"`
	Options      *LabelOptionsInput `json:"options"`
	Quantities   map[string]int     `json:"quantities" binding:"omitempty,dive,gte=0,lte=1000"`
	FormatID     string             `json:"format_id"`
	CustomFormat *CustomFormatInput `json:"custom_format"`
	Title        string             `json:"title" binding:"max=200"`
}

// =============================================================================
// Service-level requests and results
// =============================================================================

// PrintRequest is a fully resolved document or print request
type PrintRequest struct {
	Products   []labeling.ProductRecord
	Options    labeling.LabelOptions
	Quantities labeling.QuantityMap
	Format     labeling.LabelFormat
	Title      string
	// IdempotencyKey, when set, refuses a replay of the same print request
	IdempotencyKey string
}

// PrintResult reports the outcome of a print call. Failures are values, never errors.
type PrintResult struct {
	Success    bool   `json:"success"`
	LabelCount int    `json:"label_count"`
	Error      string `json:"error,omitempty"`
	JobID      string `json:"job_id,omitempty"`
}

// Defaults are the deployment-wide label settings applied to requests
type Defaults struct {
	FormatID       labeling.FormatID
	CurrencySymbol string
	StoreName      string
	IdempotencyTTL time.Duration
	// MaxLabels caps the labels one document may expand to
	MaxLabels int
}

// DefaultDefaults returns the built-in label settings
func DefaultDefaults() Defaults {
	return Defaults{
		FormatID:       labeling.FormatStandard30,
		CurrencySymbol: labeling.DefaultCurrencySymbol,
		IdempotencyTTL: shared.DefaultIdempotencyTTL,
		MaxLabels:      labeling.DefaultMaxLabels,
	}
}

// ResolveFormat picks the catalogue format by ID, applies custom dimensions to
// CUSTOM, and falls back to the configured default when id is empty.
func (d Defaults) ResolveFormat(id string, custom *CustomFormatInput) (labeling.LabelFormat, error) {
	formatID := labeling.FormatID(strings.ToUpper(strings.TrimSpace(id)))
	if formatID == "" {
		formatID = d.FormatID
	}
	if formatID == "" {
		formatID = labeling.FormatStandard30
	}

	if formatID == labeling.FormatCustom && custom != nil {
		return labeling.NewCustomFormat(custom.Width, custom.Height, custom.LabelsPerRow, custom.RowsPerPage)
	}
	return labeling.FormatByID(formatID)
}

// ResolveOptions converts the input over the configured defaults.
// A nil input yields the defaults.
func (d Defaults) ResolveOptions(in *LabelOptionsInput) labeling.LabelOptions {
	opts := labeling.DefaultLabelOptions()
	if d.CurrencySymbol != "" {
		opts.CurrencySymbol = d.CurrencySymbol
	}
	opts.StoreName = d.StoreName
	if in == nil {
		return opts
	}

	if in.ShowBarcode != nil {
		opts.ShowBarcode = *in.ShowBarcode
	}
	if in.ShowUnit != nil {
		opts.ShowUnit = *in.ShowUnit
	}
	opts.ShowCostPrice = in.ShowCostPrice
	opts.ShowDescription = in.ShowDescription
	opts.ShowCategory = in.ShowCategory
	opts.ShowStoreName = in.ShowStoreName
	if in.StoreName != "" {
		opts.StoreName = in.StoreName
	}
	opts.ShowExpiryDate = in.ShowExpiryDate
	opts.ExpiryDate = in.ExpiryDate
	opts.ShowBatchNumber = in.ShowBatchNumber
	opts.BatchNumber = in.BatchNumber
	opts.ShowPromotion = in.ShowPromotion
	opts.PromotionText = in.PromotionText
	opts.WasPrice = in.WasPrice
	if in.CurrencySymbol != "" {
		opts.CurrencySymbol = in.CurrencySymbol
	}
	opts.CustomFields = in.CustomFields
	return opts
}

// ToPrintRequest resolves a DocumentRequest against the defaults
func (d Defaults) ToPrintRequest(req DocumentRequest, idempotencyKey string) (PrintRequest, error) {
	format, err := d.ResolveFormat(req.FormatID, req.CustomFormat)
	if err != nil {
		return PrintRequest{}, err
	}

	products := make([]labeling.ProductRecord, len(req.Products))
	for i, p := range req.Products {
		products[i] = p.ToDomain()
	}

	return PrintRequest{
		Products:       products,
		Options:        d.ResolveOptions(req.Options),
		Quantities:     labeling.QuantityMap(req.Quantities),
		Format:         format,
		Title:          strings.TrimSpace(req.Title),
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}, nil
}

// =============================================================================
// Response DTOs
// =============================================================================

// FormatResponse describes one catalogue format
type FormatResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	LabelsPerRow  int     `json:"labels_per_row"`
	RowsPerPage   int     `json:"rows_per_page"`
	LabelsPerPage int     `json:"labels_per_page"`
	PageSize      string  `json:"page_size"`
	Layout        string  `json:"layout"`
	Description   string  `json:"description"`
}

// ToFormatResponse converts a LabelFormat to its response DTO
func ToFormatResponse(f labeling.LabelFormat) FormatResponse {
	return FormatResponse{
		ID:            string(f.ID),
		Name:          f.Name,
		Width:         f.Width,
		Height:        f.Height,
		LabelsPerRow:  f.LabelsPerRow,
		RowsPerPage:   f.RowsPerPage,
		LabelsPerPage: f.LabelsPerPage(),
		PageSize:      string(f.PageSize),
		Layout:        string(f.Layout),
		Description:   f.Description,
	}
}

// PreviewResponse carries a preview fragment
type PreviewResponse struct {
	HTML string `json:"html"`
}

// LabelJobResponse describes a recorded print run
type LabelJobResponse struct {
	ID           string     `json:"id"`
	FormatID     string     `json:"format_id"`
	Title        string     `json:"title"`
	LabelCount   int        `json:"label_count"`
	PageCount    int        `json:"page_count"`
	Status       string     `json:"status"`
	PdfURL       string     `json:"pdf_url,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ToLabelJobResponse converts a LabelJob to its response DTO
func ToLabelJobResponse(j *labeling.LabelJob) LabelJobResponse {
	return LabelJobResponse{
		ID:           j.ID.String(),
		FormatID:     string(j.FormatID),
		Title:        j.Title,
		LabelCount:   j.LabelCount,
		PageCount:    j.PageCount,
		Status:       string(j.Status),
		PdfURL:       j.PdfURL,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		CompletedAt:  j.CompletedAt,
	}
}
