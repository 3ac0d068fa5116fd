package enums

import "fmt"

// StockMutationReason maps to the stock_mutation_reason_enum enum in Postgres.
type StockMutationReason string

const (
	StockMutationReasonUsage        StockMutationReason = "sparepart_usage"
	StockMutationReasonUsageDeleted StockMutationReason = "sparepart_usage_deleted"
	StockMutationReasonAdjustment   StockMutationReason = "adjustment"
	StockMutationReasonPurchase     StockMutationReason = "purchase"
)

var validStockMutationReasons = []StockMutationReason{
	StockMutationReasonUsage,
	StockMutationReasonUsageDeleted,
	StockMutationReasonAdjustment,
	StockMutationReasonPurchase,
}

// String implements fmt.Stringer.
func (r StockMutationReason) String() string {
	return string(r)
}

// IsValid reports whether the value matches the canonical mutation reason enum.
func (r StockMutationReason) IsValid() bool {
	for _, candidate := range validStockMutationReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStockMutationReason converts raw input into StockMutationReason.
func ParseStockMutationReason(value string) (StockMutationReason, error) {
	for _, candidate := range validStockMutationReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock mutation reason %q", value)
}
