package ports

import (
	"goebm/domain/ebm"
)

// MeasurementReader loads the cross-sectional measurement table. Inputs are
// read exactly once, before the chain starts iterating.
type MeasurementReader interface {
	// Read loads and groups all measurement records.
	Read() (*ebm.Dataset, error)
}

// OrderReader loads an optional ground-truth ordering used only for
// Kendall's-tau evaluation of the recovered orders.
type OrderReader interface {
	ReadOrder() (ebm.Order, error)
}
