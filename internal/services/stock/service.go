package stock

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/events"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

// Service exposes stock history and manual adjustments
type Service struct {
	db        *database.DB
	publisher events.Publisher
}

// NewService creates a stock service
func NewService(db *database.DB, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{db: db, publisher: publisher}
}

// ReasonStats aggregates history rows for one reason code
type ReasonStats struct {
	Reason      models.StockReason `json:"reason"`
	Count       int64              `json:"count"`
	NewLevelSum int64              `json:"newLevelSum"`
	OldLevelSum int64              `json:"oldLevelSum"`
}

// AdjustInput is a manual stock correction
type AdjustInput struct {
	Quantity int                `json:"quantity" validate:"required,ne=0"`
	Reason   models.StockReason `json:"reason" validate:"required,oneof=RESTOCK RETURN DAMAGE ADJUSTMENT EXPIRED"`
	Note     string             `json:"note" validate:"max=500"`
}

func (s *Service) ensureItem(ctx context.Context, itemID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return utils.NotFound("item", "Item not found")
	}
	return nil
}

// History returns an item's history, newest first
func (s *Service) History(ctx context.Context, itemID string) ([]models.StockHistory, error) {
	if err := s.ensureItem(ctx, itemID); err != nil {
		return nil, err
	}

	var entries []models.StockHistory
	err := s.db.WithContext(ctx).
		Preload("UpdatedBy").
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

// Stats groups an item's history by reason
func (s *Service) Stats(ctx context.Context, itemID string) ([]ReasonStats, error) {
	if err := s.ensureItem(ctx, itemID); err != nil {
		return nil, err
	}

	var stats []ReasonStats
	err := s.db.WithContext(ctx).
		Model(&models.StockHistory{}).
		Select("reason, COUNT(*) AS count, COALESCE(SUM(new_level), 0) AS new_level_sum, COALESCE(SUM(old_level), 0) AS old_level_sum").
		Where("item_id = ?", itemID).
		Group("reason").
		Order("reason").
		Scan(&stats).Error
	return stats, err
}

// Adjust applies a signed quantity change with an explicit reason code
func (s *Service) Adjust(ctx context.Context, itemID string, in AdjustInput, actorID string) (*models.Item, error) {
	if in.Quantity == 0 {
		return nil, utils.ValidationError("Quantity must not be zero")
	}
	if !in.Reason.Valid() || in.Reason == models.ReasonSale {
		return nil, utils.ValidationError("Invalid adjustment reason")
	}

	var item *models.Item
	var ev events.StockChanged
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = LockItem(tx, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("item", "Item not found")
		}
		if err != nil {
			return err
		}

		newLevel := item.StockLevel + in.Quantity
		if newLevel < 0 {
			return utils.BadRequest("INSUFFICIENT_STOCK", fmt.Sprintf("Insufficient stock for items: %s", item.Name))
		}

		note := in.Note
		if note == "" {
			note = "Manual adjustment"
		}
		ev, err = Apply(tx, item, newLevel, in.Reason, actorID, note, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, ev)
	return item, nil
}
