package purchasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/stockflow/internal/events"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/stock"
	"github.com/xelth-com/stockflow/internal/utils"
)

// ReceiptLineInput is one received item
type ReceiptLineInput struct {
	ItemID      string     `json:"itemId" validate:"required"`
	Quantity    int        `json:"quantity" validate:"gte=1"`
	BatchNumber string     `json:"batchNumber"`
	ExpiryDate  *time.Time `json:"expiryDate"`
}

// CreateReceiptInput is the body of a new goods receipt
type CreateReceiptInput struct {
	PurchaseOrderID string             `json:"purchaseOrderId" validate:"required"`
	Items           []ReceiptLineInput `json:"items" validate:"required,min=1,dive"`
	Notes           string             `json:"notes"`
}

// UpdateReceiptInput changes status, notes or both
type UpdateReceiptInput struct {
	Status *models.ReceiptStatus `json:"status"`
	Notes  *string               `json:"notes"`
}

// ReceiptFilter narrows goods receipt listings
type ReceiptFilter struct {
	PurchaseOrderID string
	Status          models.ReceiptStatus
}

// CreateGoodsReceipt records a PENDING receipt against a purchase order
func (s *Service) CreateGoodsReceipt(ctx context.Context, in CreateReceiptInput, userID string) (*models.GoodsReceipt, error) {
	if len(in.Items) == 0 {
		return nil, utils.ValidationError("At least one item is required")
	}

	receipt := &models.GoodsReceipt{
		PurchaseOrderID: in.PurchaseOrderID,
		ReceivedByID:    userID,
		Status:          models.ReceiptPending,
		Notes:           in.Notes,
	}
	ids := make([]string, 0, len(in.Items))
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return nil, utils.ValidationError("Quantity must be at least 1")
		}
		ids = append(ids, line.ItemID)
		receipt.Lines = append(receipt.Lines, models.GoodsReceiptLine{
			ItemID:      line.ItemID,
			Quantity:    line.Quantity,
			BatchNumber: line.BatchNumber,
			ExpiryDate:  line.ExpiryDate,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pos int64
		if err := tx.Model(&models.PurchaseOrder{}).Where("id = ?", in.PurchaseOrderID).Count(&pos).Error; err != nil {
			return err
		}
		if pos == 0 {
			return utils.NotFound("po", "Purchase order not found")
		}
		if err := missingItems(tx, ids); err != nil {
			return err
		}
		return tx.Create(receipt).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("goods receipt created", zap.String("receipt", receipt.ID), zap.String("po", receipt.PurchaseOrderID))
	return s.GetGoodsReceipt(ctx, receipt.ID)
}

// UpdateGoodsReceipt applies a status change and/or a notes change
func (s *Service) UpdateGoodsReceipt(ctx context.Context, id string, in UpdateReceiptInput, userID string) (*models.GoodsReceipt, error) {
	switch {
	case in.Status != nil:
		return s.updateReceiptStatus(ctx, id, *in.Status, in.Notes, userID)
	case in.Notes != nil:
		res := s.db.WithContext(ctx).Model(&models.GoodsReceipt{}).Where("id = ?", id).Update("notes", *in.Notes)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, utils.NotFound("receipt", "Goods receipt not found")
		}
		return s.GetGoodsReceipt(ctx, id)
	default:
		return nil, utils.ValidationError("At least one field must be provided for update")
	}
}

// UpdateGoodsReceiptStatus moves a PENDING receipt to a new status.
// Completing a receipt restocks every line and writes the receipt status in
// the same transaction. Rejecting it never touches inventory.
func (s *Service) UpdateGoodsReceiptStatus(ctx context.Context, id string, status models.ReceiptStatus, userID string) (*models.GoodsReceipt, error) {
	return s.updateReceiptStatus(ctx, id, status, nil, userID)
}

func (s *Service) updateReceiptStatus(ctx context.Context, id string, status models.ReceiptStatus, notes *string, userID string) (*models.GoodsReceipt, error) {
	if !status.Valid() {
		return nil, utils.ValidationError("Invalid receipt status")
	}

	var changes []events.StockChanged
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var receipt models.GoodsReceipt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Lines").
			First(&receipt, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("receipt", "Goods receipt not found")
		}
		if err != nil {
			return err
		}

		if receipt.Status.Terminal() {
			return utils.BadRequest("INVALID_STATUS_UPDATE", "Cannot update status of completed or rejected receipts")
		}

		if status == models.ReceiptCompleted {
			changes, err = s.restock(tx, &receipt, userID)
			if err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"status": status}
		if notes != nil {
			updates["notes"] = *notes
		}
		return tx.Model(&receipt).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range changes {
		s.publisher.Publish(ctx, ev)
	}
	zap.L().Info("goods receipt status changed", zap.String("receipt", id), zap.String("status", string(status)), zap.String("actor", userID))

	return s.GetGoodsReceipt(ctx, id)
}

// restock adds every receipt line to stock. Lines for the same item are
// applied one after another so each gets its own history entry.
func (s *Service) restock(tx *gorm.DB, receipt *models.GoodsReceipt, userID string) ([]events.StockChanged, error) {
	ids := make([]string, 0, len(receipt.Lines))
	for _, line := range receipt.Lines {
		ids = append(ids, line.ItemID)
	}

	items, err := stock.LockItems(tx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	byID := make(map[string]*models.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	received := s.now()
	note := "Goods Receipt " + receipt.ID
	changes := make([]events.StockChanged, 0, len(receipt.Lines))
	for _, line := range receipt.Lines {
		item, ok := byID[line.ItemID]
		if !ok {
			return nil, utils.BadRequest("ITEMS_NOT_FOUND", "One or more items not found")
		}
		ev, err := stock.Apply(tx, item, item.StockLevel+line.Quantity, models.ReasonRestock, userID, note,
			map[string]interface{}{"last_purchase_date": received})
		if err != nil {
			return nil, err
		}
		changes = append(changes, ev)
	}
	return changes, nil
}

// GetGoodsReceipt loads a receipt with lines, receiver and purchase order
func (s *Service) GetGoodsReceipt(ctx context.Context, id string) (*models.GoodsReceipt, error) {
	var receipt models.GoodsReceipt
	err := s.db.WithContext(ctx).
		Preload("Lines.Item").
		Preload("ReceivedBy").
		Preload("PurchaseOrder.Supplier").
		First(&receipt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("receipt", "Goods receipt not found")
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListGoodsReceipts returns receipts, newest first
func (s *Service) ListGoodsReceipts(ctx context.Context, f ReceiptFilter) ([]models.GoodsReceipt, error) {
	q := s.db.WithContext(ctx).
		Preload("Lines.Item").
		Preload("ReceivedBy").
		Preload("PurchaseOrder.Supplier").
		Order("created_at DESC")
	if f.PurchaseOrderID != "" {
		q = q.Where("purchase_order_id = ?", f.PurchaseOrderID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var list []models.GoodsReceipt
	err := q.Find(&list).Error
	return list, err
}

// DeleteGoodsReceipt removes a receipt that has not been completed
func (s *Service) DeleteGoodsReceipt(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var receipt models.GoodsReceipt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&receipt, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("receipt", "Goods receipt not found")
		}
		if err != nil {
			return err
		}
		if receipt.Status == models.ReceiptCompleted {
			return utils.BadRequest("INVALID_OPERATION", "Cannot delete a completed goods receipt")
		}

		if err := tx.Where("goods_receipt_id = ?", id).Delete(&models.GoodsReceiptLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&receipt).Error
	})
}
