package labeling

import "github.com/shopspring/decimal"

// ProductRecord is the product data a label is printed from
type ProductRecord struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	CostPrice    *decimal.Decimal
	Barcode      string
	SKU          string
	Unit         string
	Description  string
	CategoryName string
}
