package enums

import "fmt"

// StockBoxStatus tracks the lifecycle of a physical stock box.
type StockBoxStatus string

const (
	StockBoxStatusInStock     StockBoxStatus = "in_stock"
	StockBoxStatusSold        StockBoxStatus = "sold"
	StockBoxStatusDamaged     StockBoxStatus = "damaged"
	StockBoxStatusQuarantined StockBoxStatus = "quarantined"
)

var validStockBoxStatuses = []StockBoxStatus{
	StockBoxStatusInStock,
	StockBoxStatusSold,
	StockBoxStatusDamaged,
	StockBoxStatusQuarantined,
}

// String implements fmt.Stringer.
func (s StockBoxStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockBoxStatus.
func (s StockBoxStatus) IsValid() bool {
	for _, candidate := range validStockBoxStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockBoxStatus converts raw input into a StockBoxStatus.
func ParseStockBoxStatus(value string) (StockBoxStatus, error) {
	for _, candidate := range validStockBoxStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock box status %q", value)
}
