package labeling

import (
	"fmt"
	"math"

	"github.com/erp/labelprint/internal/domain/shared"
)

// Label count limits for a single document
const (
	MaxQuantityPerProduct = 1000
	DefaultMaxLabels      = 5000
)

// QuantityMap holds the requested number of labels per product id
type QuantityMap map[string]int

// Get returns the label count for a product; absent or non-positive entries mean one
func (q QuantityMap) Get(productID string) int {
	if n, ok := q[productID]; ok && n > 0 {
		return n
	}
	return 1
}

// Total returns the number of labels the products expand to, saturating at math.MaxInt
func (q QuantityMap) Total(products []ProductRecord) int {
	total := 0
	for _, p := range products {
		n := q.Get(p.ID)
		if total > math.MaxInt-n {
			return math.MaxInt
		}
		total += n
	}
	return total
}

// CheckLimit returns a TOO_MANY_LABELS error when the products expand to more
// than limit labels. A non-positive limit disables the check.
func (q QuantityMap) CheckLimit(products []ProductRecord, limit int) error {
	if limit <= 0 {
		return nil
	}
	if total := q.Total(products); total > limit {
		return shared.NewDomainError("TOO_MANY_LABELS",
			fmt.Sprintf("A document can hold at most %d labels", limit))
	}
	return nil
}

// ExpandProducts repeats each product by its quantity. Order is preserved and
// copies of one product are contiguous.
func ExpandProducts(products []ProductRecord, quantities QuantityMap) []ProductRecord {
	out := make([]ProductRecord, 0, quantities.Total(products))
	for _, p := range products {
		for i := 0; i < quantities.Get(p.ID); i++ {
			out = append(out, p)
		}
	}
	return out
}
