package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/events"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/stock"
	"github.com/xelth-com/stockflow/internal/utils"
)

// Service manages inventory items
type Service struct {
	db        *database.DB
	publisher events.Publisher
}

// NewService creates an inventory service
func NewService(db *database.DB, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{db: db, publisher: publisher}
}

// CreateInput is the body of a new item
type CreateInput struct {
	Name                 string            `json:"name" validate:"required,min=2"`
	Description          string            `json:"description"`
	Dimensions           string            `json:"dimensions"`
	Weight               *float64          `json:"weight" validate:"omitempty,gte=0"`
	StorageConditions    string            `json:"storageConditions"`
	HandlingInstructions string            `json:"handlingInstructions"`
	StockLevel           int               `json:"stockLevel" validate:"gte=0"`
	MinimumStockLevel    int               `json:"minimumStockLevel" validate:"gte=0"`
	Warehouse            string            `json:"warehouse"`
	Aisle                string            `json:"aisle"`
	Shelf                string            `json:"shelf"`
	ExpiryDate           *time.Time        `json:"expiryDate"`
	Status               models.ItemStatus `json:"status" validate:"omitempty,oneof=AVAILABLE LOW_STOCK OUT_OF_STOCK EXPIRED DAMAGED"`
	SupplierID           string            `json:"supplierId" validate:"required"`
	CategoryID           *string           `json:"categoryId"`
	ItemCatalogID        *string           `json:"itemCatalogId"`
}

// UpdateInput changes only the fields that are present
type UpdateInput struct {
	Name                 *string            `json:"name" validate:"omitempty,min=2"`
	Description          *string            `json:"description"`
	Dimensions           *string            `json:"dimensions"`
	Weight               *float64           `json:"weight" validate:"omitempty,gte=0"`
	StorageConditions    *string            `json:"storageConditions"`
	HandlingInstructions *string            `json:"handlingInstructions"`
	StockLevel           *int               `json:"stockLevel" validate:"omitempty,gte=0"`
	MinimumStockLevel    *int               `json:"minimumStockLevel" validate:"omitempty,gte=0"`
	Warehouse            *string            `json:"warehouse"`
	Aisle                *string            `json:"aisle"`
	Shelf                *string            `json:"shelf"`
	ExpiryDate           *time.Time         `json:"expiryDate"`
	Status               *models.ItemStatus `json:"status" validate:"omitempty,oneof=AVAILABLE LOW_STOCK OUT_OF_STOCK EXPIRED DAMAGED"`
	SupplierID           *string            `json:"supplierId"`
	CategoryID           *string            `json:"categoryId"`
	ItemCatalogID        *string            `json:"itemCatalogId"`
}

// ListFilter narrows item listings
type ListFilter struct {
	Search     string
	Status     models.ItemStatus
	CategoryID string
	Warehouse  string
}

func exists(tx *gorm.DB, model interface{}, id string) (bool, error) {
	var count int64
	err := tx.Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// checkRefs verifies optional foreign keys point at existing rows
func checkRefs(tx *gorm.DB, supplierID, categoryID, catalogID *string) error {
	refs := []struct {
		id     *string
		model  interface{}
		entity string
		msg    string
	}{
		{supplierID, &models.Supplier{}, "supplier", "Supplier not found"},
		{categoryID, &models.Category{}, "category", "Category not found"},
		{catalogID, &models.ItemCatalog{}, "item catalog", "Item catalog not found"},
	}
	for _, ref := range refs {
		if ref.id == nil || *ref.id == "" {
			continue
		}
		ok, err := exists(tx, ref.model, *ref.id)
		if err != nil {
			return err
		}
		if !ok {
			return utils.NotFound(ref.entity, ref.msg)
		}
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// Create stores a new item. Initial stock is recorded as a RESTOCK entry.
func (s *Service) Create(ctx context.Context, in CreateInput, userID string) (*models.Item, error) {
	if in.StockLevel < 0 || in.MinimumStockLevel < 0 {
		return nil, utils.ValidationError("Stock level cannot be negative")
	}

	item := &models.Item{
		Name:                 strings.TrimSpace(in.Name),
		Description:          in.Description,
		Dimensions:           in.Dimensions,
		Weight:               in.Weight,
		StorageConditions:    in.StorageConditions,
		HandlingInstructions: in.HandlingInstructions,
		StockLevel:           0,
		MinimumStockLevel:    in.MinimumStockLevel,
		Warehouse:            in.Warehouse,
		Aisle:                in.Aisle,
		Shelf:                in.Shelf,
		ExpiryDate:           in.ExpiryDate,
		Status:               stock.DeriveStatus(0, in.MinimumStockLevel, in.Status),
		SupplierID:           &in.SupplierID,
		CategoryID:           emptyToNil(in.CategoryID),
		ItemCatalogID:        emptyToNil(in.ItemCatalogID),
		UserID:               &userID,
	}

	var ev *events.StockChanged
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRefs(tx, item.SupplierID, item.CategoryID, item.ItemCatalogID); err != nil {
			return err
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		if in.StockLevel == 0 {
			return nil
		}
		change, err := stock.Apply(tx, item, in.StockLevel, models.ReasonRestock, userID, "Initial stock", nil)
		if err != nil {
			return err
		}
		ev = &change
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ev != nil {
		s.publisher.Publish(ctx, *ev)
	}
	zap.L().Info("item created", zap.String("item", item.ID), zap.String("name", item.Name), zap.String("actor", userID))
	return s.Get(ctx, item.ID)
}

// Get loads one item with its relations
func (s *Service) Get(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Supplier").
		Preload("User").
		Preload("QRCodes").
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("item", "Item not found")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Public returns the unauthenticated view of an item
func (s *Service) Public(ctx context.Context, id string) (*models.PublicItem, error) {
	var item models.Item
	err := s.db.WithContext(ctx).Preload("Category").First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("item", "Item not found")
	}
	if err != nil {
		return nil, err
	}
	view := item.Public()
	return &view, nil
}

// List returns items ordered by name
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Item, error) {
	q := s.db.WithContext(ctx).Preload("Category").Preload("Supplier").Order("name")
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Warehouse != "" {
		q = q.Where("warehouse = ?", f.Warehouse)
	}

	var items []models.Item
	err := q.Find(&items).Error
	return items, err
}

// Update edits an item. A changed stock level is recorded as RESTOCK when it
// grew and ADJUSTMENT otherwise.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, userID string) (*models.Item, error) {
	var ev *events.StockChanged
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := stock.LockItem(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("item", "Item not found")
		}
		if err != nil {
			return err
		}
		if err := checkRefs(tx, in.SupplierID, in.CategoryID, in.ItemCatalogID); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		setString := func(column string, v *string) {
			if v != nil {
				updates[column] = *v
			}
		}
		setString("description", in.Description)
		setString("dimensions", in.Dimensions)
		setString("storage_conditions", in.StorageConditions)
		setString("handling_instructions", in.HandlingInstructions)
		setString("warehouse", in.Warehouse)
		setString("aisle", in.Aisle)
		setString("shelf", in.Shelf)
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Weight != nil {
			updates["weight"] = *in.Weight
		}
		if in.ExpiryDate != nil {
			updates["expiry_date"] = *in.ExpiryDate
		}
		if in.SupplierID != nil {
			updates["supplier_id"] = emptyToNil(in.SupplierID)
		}
		if in.CategoryID != nil {
			updates["category_id"] = emptyToNil(in.CategoryID)
		}
		if in.ItemCatalogID != nil {
			updates["item_catalog_id"] = emptyToNil(in.ItemCatalogID)
		}
		if in.MinimumStockLevel != nil {
			item.MinimumStockLevel = *in.MinimumStockLevel
			updates["minimum_stock_level"] = *in.MinimumStockLevel
		}
		if in.Status != nil {
			item.Status = *in.Status
		}

		newLevel := item.StockLevel
		if in.StockLevel != nil {
			newLevel = *in.StockLevel
		}

		if newLevel != item.StockLevel {
			reason := models.ReasonAdjustment
			if newLevel > item.StockLevel {
				reason = models.ReasonRestock
			}
			change, err := stock.Apply(tx, item, newLevel, reason, userID, "Stock level updated", updates)
			if err != nil {
				return err
			}
			ev = &change
			return nil
		}

		updates["status"] = stock.DeriveStatus(item.StockLevel, item.MinimumStockLevel, item.Status)
		return tx.Model(&models.Item{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if ev != nil {
		s.publisher.Publish(ctx, *ev)
	}
	return s.Get(ctx, id)
}

// Delete removes an item together with its QR codes and history. Items that
// orders, purchase orders, receipts or requests point at cannot be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Item{}, id)
		if err != nil {
			return err
		}
		if !ok {
			return utils.NotFound("item", "Item not found")
		}

		for _, ref := range []interface{}{&models.OrderLine{}, &models.PurchaseOrderLine{}, &models.GoodsReceiptLine{}, &models.Request{}} {
			var count int64
			if err := tx.Model(ref).Where("item_id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return utils.BadRequest("ITEM_IN_USE", "Item is referenced by orders, purchase orders, receipts or requests")
			}
		}

		if err := tx.Where("item_id = ?", id).Delete(&models.QRCode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.StockHistory{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Item{}).Error
	})
}
