package stock

import "github.com/xelth-com/stockflow/internal/models"

// DeriveStatus maps a stock level to an availability status. EXPIRED and
// DAMAGED are set by people, not by stock arithmetic, so they are kept.
func DeriveStatus(stockLevel, minimum int, current models.ItemStatus) models.ItemStatus {
	switch current {
	case models.ItemExpired, models.ItemDamaged:
		return current
	}

	switch {
	case stockLevel <= 0:
		return models.ItemOutOfStock
	case stockLevel <= minimum:
		return models.ItemLowStock
	default:
		return models.ItemAvailable
	}
}
