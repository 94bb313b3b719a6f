package labeling

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// UnknownProductName is printed when a product has no usable name
const UnknownProductName = "Unknown Product"

// Custom field keys that override formatted fields
const (
	FieldName          = "name"
	FieldPrice         = "price"
	FieldWasPrice      = "wasPrice"
	FieldSKU           = "sku"
	FieldBarcodeValue  = "barcodeValue"
	FieldUnit          = "unit"
	FieldDescription   = "description"
	FieldCategory      = "category"
	FieldStoreName     = "storeName"
	FieldExpiryDate    = "expiryDate"
	FieldBatchNumber   = "batchNumber"
	FieldPromotionText = "promotionText"
)

// Formatter turns product records into display-ready labels
type Formatter struct {
	encoder BarcodeEncoder
}

// NewFormatter creates a formatter. A nil encoder produces labels without barcode images.
func NewFormatter(encoder BarcodeEncoder) *Formatter {
	return &Formatter{encoder: encoder}
}

// Format builds the label for one product
func (f *Formatter) Format(product ProductRecord, opts LabelOptions) FormattedLabel {
	symbol := opts.CurrencySymbol
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}

	label := FormattedLabel{
		ProductID: product.ID,
		Name:      normalizeName(product.Name),
		Price:     formatPrice(symbol, displayPrice(product, opts)),
		SKU:       firstNonEmpty(strings.TrimSpace(product.SKU), "SKU"+product.ID),
	}

	if opts.WasPrice != nil {
		was := formatPrice(symbol, *opts.WasPrice)
		label.WasPrice = &was
	}

	if opts.ShowBarcode {
		value := ResolveBarcodeValue(product)
		label.BarcodeValue = &value
	}

	label.Unit = optional(opts.ShowUnit, product.Unit)
	label.Description = optional(opts.ShowDescription, product.Description)
	label.Category = optional(opts.ShowCategory, product.CategoryName)
	label.StoreName = optional(opts.ShowStoreName, opts.StoreName)
	label.ExpiryDate = optional(opts.ShowExpiryDate, opts.ExpiryDate)
	label.BatchNumber = optional(opts.ShowBatchNumber, opts.BatchNumber)
	label.PromotionText = optional(opts.ShowPromotion, opts.PromotionText)

	applyCustomFields(&label, opts.CustomFields)

	// Encode after overrides so a barcodeValue override is what gets printed.
	// A value that cannot be encoded drops the barcode region entirely.
	if label.BarcodeValue != nil && f.encoder != nil {
		if img, ok := f.encoder.Encode(*label.BarcodeValue); ok {
			label.Barcode = img
		} else {
			label.BarcodeValue = nil
		}
	}

	return label
}

// FormatAll formats each product with the same options, preserving order
func (f *Formatter) FormatAll(products []ProductRecord, opts LabelOptions) []FormattedLabel {
	labels := make([]FormattedLabel, 0, len(products))
	for _, p := range products {
		labels = append(labels, f.Format(p, opts))
	}
	return labels
}

// ResolveBarcodeValue picks the value to encode: barcode, then SKU, then "PRD" + id
func ResolveBarcodeValue(product ProductRecord) string {
	return firstNonEmpty(
		strings.TrimSpace(product.Barcode),
		strings.TrimSpace(product.SKU),
		"PRD"+product.ID,
	)
}

func displayPrice(product ProductRecord, opts LabelOptions) decimal.Decimal {
	if opts.ShowCostPrice && product.CostPrice != nil {
		return *product.CostPrice
	}
	return product.Price
}

func formatPrice(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}

func normalizeName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return UnknownProductName
	}
	return name
}

func optional(show bool, value string) *string {
	if !show {
		return nil
	}
	return nonEmpty(value)
}

func nonEmpty(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func applyCustomFields(label *FormattedLabel, fields map[string]string) {
	for key, value := range fields {
		switch key {
		case FieldName:
			if n := strings.TrimSpace(value); n != "" {
				label.Name = norm.NFC.String(n)
			}
		case FieldPrice:
			label.Price = value
		case FieldWasPrice:
			label.WasPrice = nonEmpty(value)
		case FieldSKU:
			label.SKU = strings.TrimSpace(value)
		case FieldBarcodeValue:
			if label.BarcodeValue != nil {
				if v := nonEmpty(value); v != nil {
					label.BarcodeValue = v
				}
			}
		case FieldUnit:
			label.Unit = nonEmpty(value)
		case FieldDescription:
			label.Description = nonEmpty(value)
		case FieldCategory:
			label.Category = nonEmpty(value)
		case FieldStoreName:
			label.StoreName = nonEmpty(value)
		case FieldExpiryDate:
			label.ExpiryDate = nonEmpty(value)
		case FieldBatchNumber:
			label.BatchNumber = nonEmpty(value)
		case FieldPromotionText:
			label.PromotionText = nonEmpty(value)
		default:
			if label.Extra == nil {
				label.Extra = make(map[string]string)
			}
			label.Extra[key] = value
		}
	}
}
