// Package purchasing handles purchase orders and the goods receipts that
// bring purchased stock into the warehouse.
package purchasing

import (
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/events"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

// Service implements the purchase order and goods receipt workflows
type Service struct {
	db        *database.DB
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a purchasing service
func NewService(db *database.DB, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		db:        db,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// missingItems reports ITEMS_NOT_FOUND unless every id exists
func missingItems(tx *gorm.DB, ids []string) error {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	keys := make([]string, 0, len(unique))
	for id := range unique {
		keys = append(keys, id)
	}

	var count int64
	if err := tx.Model(&models.Item{}).Where("id IN ?", keys).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(keys) {
		return utils.BadRequest("ITEMS_NOT_FOUND", "One or more items not found")
	}
	return nil
}
