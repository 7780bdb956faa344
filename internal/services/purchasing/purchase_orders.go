package purchasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

// POLineInput is one line of a new purchase order
type POLineInput struct {
	ItemID    string          `json:"itemId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// CreatePOInput is the body of a new purchase order
type CreatePOInput struct {
	SupplierID string        `json:"supplierId" validate:"required"`
	Items      []POLineInput `json:"items" validate:"required,min=1,dive"`
	Notes      string        `json:"notes"`
}

// POFilter narrows purchase order listings
type POFilter struct {
	Status     models.POStatus
	SupplierID string
	From       *time.Time
	To         *time.Time
}

// CreatePurchaseOrder stores a purchase order with its lines. The total is
// the sum of quantity times unit price over all lines.
func (s *Service) CreatePurchaseOrder(ctx context.Context, in CreatePOInput, userID string) (*models.PurchaseOrder, error) {
	if len(in.Items) == 0 {
		return nil, utils.ValidationError("At least one item is required")
	}

	po := &models.PurchaseOrder{
		SupplierID: in.SupplierID,
		UserID:     userID,
		Status:     models.POPending,
		Notes:      in.Notes,
	}

	total := decimal.Zero
	ids := make([]string, 0, len(in.Items))
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return nil, utils.ValidationError("Quantity must be at least 1")
		}
		if line.UnitPrice.IsNegative() {
			return nil, utils.ValidationError("Unit price cannot be negative")
		}
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		ids = append(ids, line.ItemID)

		po.Lines = append(po.Lines, models.PurchaseOrderLine{
			ItemID:     line.ItemID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: lineTotal,
		})
	}
	po.TotalAmount = total

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var suppliers int64
		if err := tx.Model(&models.Supplier{}).Where("id = ?", in.SupplierID).Count(&suppliers).Error; err != nil {
			return err
		}
		if suppliers == 0 {
			return utils.NotFound("supplier", "Supplier not found")
		}
		if err := missingItems(tx, ids); err != nil {
			return err
		}
		if err := tx.Create(po).Error; err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("purchase order created", zap.String("po", po.ID), zap.String("supplier", po.SupplierID), zap.String("total", total.StringFixed(2)))
	return s.GetPurchaseOrder(ctx, po.ID)
}

// UpdatePurchaseOrderStatus changes the status unless the order is already
// CANCELLED or RECEIVED
func (s *Service) UpdatePurchaseOrderStatus(ctx context.Context, id string, status models.POStatus, userID string) (*models.PurchaseOrder, error) {
	if !status.Valid() {
		return nil, utils.ValidationError("Invalid purchase order status")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var po models.PurchaseOrder
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&po, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("po", "Purchase order not found")
		}
		if err != nil {
			return err
		}
		if po.Status.Terminal() {
			return utils.BadRequest("INVALID_STATUS_TRANSITION", "Cannot update status of cancelled or received purchase orders")
		}
		return tx.Model(&po).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("purchase order status changed", zap.String("po", id), zap.String("status", string(status)), zap.String("actor", userID))
	return s.GetPurchaseOrder(ctx, id)
}

// GetPurchaseOrder loads a purchase order with lines and receipts
func (s *Service) GetPurchaseOrder(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := s.db.WithContext(ctx).
		Preload("Supplier").
		Preload("CreatedBy").
		Preload("Lines.Item").
		Preload("Receipts", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Receipts.Lines").
		Preload("Receipts.ReceivedBy").
		First(&po, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("po", "Purchase order not found")
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// ListPurchaseOrders returns purchase orders, newest first
func (s *Service) ListPurchaseOrders(ctx context.Context, f POFilter) ([]models.PurchaseOrder, error) {
	q := s.db.WithContext(ctx).
		Preload("Supplier").
		Preload("CreatedBy").
		Preload("Lines.Item").
		Order("created_at DESC")

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.SupplierID != "" {
		q = q.Where("supplier_id = ?", f.SupplierID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var list []models.PurchaseOrder
	err := q.Find(&list).Error
	return list, err
}
