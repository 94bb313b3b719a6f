package labeling

import "github.com/shopspring/decimal"

// DefaultCurrencySymbol is prefixed to every formatted price
const DefaultCurrencySymbol = "R"

// LabelOptions controls which fields appear on a label
type LabelOptions struct {
	ShowBarcode     bool
	ShowCostPrice   bool
	ShowDescription bool
	ShowCategory    bool
	ShowUnit        bool
	ShowStoreName   bool
	StoreName       string
	ShowExpiryDate  bool
	ExpiryDate      string
	ShowBatchNumber bool
	BatchNumber     string
	ShowPromotion   bool
	PromotionText   string
	// WasPrice is the previous price shown struck through; nil hides it
	WasPrice       *decimal.Decimal
	CurrencySymbol string
	// CustomFields override formatted fields by name; unknown names land in FormattedLabel.Extra
	CustomFields map[string]string
}

// DefaultLabelOptions returns barcode and unit on, everything else off
func DefaultLabelOptions() LabelOptions {
	return LabelOptions{
		ShowBarcode:    true,
		ShowUnit:       true,
		CurrencySymbol: DefaultCurrencySymbol,
	}
}
