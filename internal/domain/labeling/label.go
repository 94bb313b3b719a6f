package labeling

// Symbology is the barcode symbol set used to encode a value
type Symbology string

const (
	SymbologyCode128 Symbology = "CODE128"
	SymbologyEAN13   Symbology = "EAN13"
)

// String returns the string representation of Symbology
func (s Symbology) String() string {
	return string(s)
}

// BarcodeImage is an encoded barcode ready for embedding
type BarcodeImage struct {
	Symbology Symbology `json:"symbology"`
	// DataURI is a data:image/png;base64 URI
	DataURI string `json:"data_uri"`
}

// BarcodeEncoder turns a barcode value into an image.
// ok is false when the value cannot be encoded; the label is then printed without an image.
type BarcodeEncoder interface {
	Encode(value string) (img *BarcodeImage, ok bool)
}

// FormattedLabel is the display-ready content of one label.
// Optional fields are nil when they must not be printed, never empty strings.
type FormattedLabel struct {
	ProductID     string            `json:"product_id"`
	Name          string            `json:"name"`
	Price         string            `json:"price"`
	WasPrice      *string           `json:"was_price,omitempty"`
	SKU           string            `json:"sku"`
	BarcodeValue  *string           `json:"barcode_value,omitempty"`
	Barcode       *BarcodeImage     `json:"barcode,omitempty"`
	Unit          *string           `json:"unit,omitempty"`
	Description   *string           `json:"description,omitempty"`
	Category      *string           `json:"category,omitempty"`
	StoreName     *string           `json:"store_name,omitempty"`
	ExpiryDate    *string           `json:"expiry_date,omitempty"`
	BatchNumber   *string           `json:"batch_number,omitempty"`
	PromotionText *string           `json:"promotion_text,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// HasFooter reports whether any of the thermal bottom-strip fields is present
func (l FormattedLabel) HasFooter() bool {
	return l.SKU != "" || l.ExpiryDate != nil || l.BatchNumber != nil
}
