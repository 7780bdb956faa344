package stock

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/stockflow/internal/events"
	"github.com/xelth-com/stockflow/internal/models"
)

// Record appends one history row. Persistence errors are returned as is.
func Record(tx *gorm.DB, itemID string, oldLevel, newLevel int, reason models.StockReason, actorID, note string) (*models.StockHistory, error) {
	entry := &models.StockHistory{
		ID:          uuid.NewString(),
		ItemID:      itemID,
		OldLevel:    oldLevel,
		NewLevel:    newLevel,
		Reason:      reason,
		Note:        note,
		UpdatedByID: actorID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// LockItems loads the given items with row locks held until tx ends.
// Rows are locked in id order so concurrent callers cannot deadlock.
func LockItems(tx *gorm.DB, ids []string) ([]models.Item, error) {
	var items []models.Item
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&items).Error
	return items, err
}

// LockItem loads a single item with a row lock
func LockItem(tx *gorm.DB, id string) (*models.Item, error) {
	var item models.Item
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Apply moves item to newLevel, rederives its status, persists both together
// with any extra columns and records exactly one history entry. item is
// updated in place. The returned event must be published after commit.
func Apply(tx *gorm.DB, item *models.Item, newLevel int, reason models.StockReason, actorID, note string, extra map[string]interface{}) (events.StockChanged, error) {
	oldLevel := item.StockLevel
	status := DeriveStatus(newLevel, item.MinimumStockLevel, item.Status)

	updates := map[string]interface{}{
		"stock_level": newLevel,
		"status":      status,
	}
	for k, v := range extra {
		updates[k] = v
	}

	if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
		return events.StockChanged{}, fmt.Errorf("failed to update item %s: %w", item.ID, err)
	}
	if _, err := Record(tx, item.ID, oldLevel, newLevel, reason, actorID, note); err != nil {
		return events.StockChanged{}, fmt.Errorf("failed to record stock history: %w", err)
	}

	item.StockLevel = newLevel
	item.Status = status

	return events.StockChanged{
		ItemID:   item.ID,
		ItemName: item.Name,
		OldLevel: oldLevel,
		NewLevel: newLevel,
		Status:   string(status),
		Reason:   string(reason),
		ActorID:  actorID,
		Note:     note,
		At:       time.Now().UTC(),
	}, nil
}
