package catalog

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

// SupplierOfferInput links a supplier and its terms to a catalog entry
type SupplierOfferInput struct {
	SupplierID      string          `json:"supplierId" validate:"required"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	LeadTime        *int            `json:"leadTime" validate:"omitempty,gte=0"`
	MinimumOrderQty int             `json:"minimumOrderQty" validate:"gte=1"`
	PackSize        int             `json:"packSize" validate:"gte=1"`
	IsPreferred     bool            `json:"isPreferred"`
	SupplierSKU     string          `json:"supplierSku"`
}

// ItemCatalogInput is the body of a new catalog entry
type ItemCatalogInput struct {
	Name                 string               `json:"name" validate:"required,min=2"`
	Description          string               `json:"description"`
	Dimensions           string               `json:"dimensions"`
	Weight               *float64             `json:"weight" validate:"omitempty,gte=0"`
	StorageConditions    string               `json:"storageConditions"`
	HandlingInstructions string               `json:"handlingInstructions"`
	MinimumStockLevel    int                  `json:"minimumStockLevel" validate:"gte=0"`
	ReorderPoint         int                  `json:"reorderPoint" validate:"gte=0"`
	Status               string               `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE DISCONTINUED"`
	CategoryID           *string              `json:"categoryId"`
	Suppliers            []SupplierOfferInput `json:"suppliers" validate:"required,min=1,dive"`
}

// ItemCatalogUpdate changes the fields that are present. When Suppliers is
// non-nil it replaces the supplier links.
type ItemCatalogUpdate struct {
	Name                 *string              `json:"name" validate:"omitempty,min=2"`
	Description          *string              `json:"description"`
	Dimensions           *string              `json:"dimensions"`
	Weight               *float64             `json:"weight" validate:"omitempty,gte=0"`
	StorageConditions    *string              `json:"storageConditions"`
	HandlingInstructions *string              `json:"handlingInstructions"`
	MinimumStockLevel    *int                 `json:"minimumStockLevel" validate:"omitempty,gte=0"`
	ReorderPoint         *int                 `json:"reorderPoint" validate:"omitempty,gte=0"`
	Status               *string              `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE DISCONTINUED"`
	CategoryID           *string              `json:"categoryId"`
	Suppliers            []SupplierOfferInput `json:"suppliers" validate:"omitempty,dive"`
}

// CatalogFilter narrows and pages catalog listings
type CatalogFilter struct {
	Search     string
	CategoryID string
	Status     string
	Page       int
	Limit      int
}

// CatalogPage is one page of catalog entries
type CatalogPage struct {
	Items []models.ItemCatalog `json:"items"`
	Total int64                `json:"total"`
	Pages int                  `json:"pages"`
}

func withCatalogRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Category").Preload("Suppliers.Supplier")
}

// ListItemCatalogs returns a page of catalog entries, most recently updated first
func (s *Service) ListItemCatalogs(ctx context.Context, f CatalogFilter) (*CatalogPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	q := s.db.WithContext(ctx).Model(&models.ItemCatalog{})
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.ItemCatalog
	err := withCatalogRelations(q).
		Order("updated_at DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &CatalogPage{
		Items: items,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(f.Limit))),
	}, nil
}

// GetItemCatalog loads a catalog entry with its category and supplier offers
func (s *Service) GetItemCatalog(ctx context.Context, id string) (*models.ItemCatalog, error) {
	var entry models.ItemCatalog
	err := withCatalogRelations(s.db.WithContext(ctx)).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("item catalog", "Item catalog not found")
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func checkOffers(tx *gorm.DB, offers []SupplierOfferInput) error {
	ids := make([]string, 0, len(offers))
	seen := make(map[string]bool, len(offers))
	for _, o := range offers {
		if o.UnitPrice.IsNegative() {
			return utils.ValidationError("Unit price cannot be negative")
		}
		if seen[o.SupplierID] {
			return utils.ValidationError("Each supplier may only be listed once")
		}
		seen[o.SupplierID] = true
		ids = append(ids, o.SupplierID)
	}

	var count int64
	if err := tx.Model(&models.Supplier{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ids) {
		return utils.NotFound("supplier", "Supplier not found")
	}
	return nil
}

func checkCategory(tx *gorm.DB, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return utils.NotFound("category", "Category not found")
	}
	return nil
}

func offerRow(catalogID string, o SupplierOfferInput) models.SupplierItem {
	minQty, pack := o.MinimumOrderQty, o.PackSize
	if minQty < 1 {
		minQty = 1
	}
	if pack < 1 {
		pack = 1
	}
	return models.SupplierItem{
		ItemCatalogID:   catalogID,
		SupplierID:      o.SupplierID,
		UnitPrice:       o.UnitPrice.Round(2),
		LeadTime:        o.LeadTime,
		MinimumOrderQty: minQty,
		PackSize:        pack,
		IsPreferred:     o.IsPreferred,
		SupplierSKU:     o.SupplierSKU,
	}
}

// CreateItemCatalog stores a catalog entry with at least one supplier offer
func (s *Service) CreateItemCatalog(ctx context.Context, in ItemCatalogInput) (*models.ItemCatalog, error) {
	if len(in.Suppliers) == 0 {
		return nil, utils.ValidationError("At least one supplier is required")
	}
	status := in.Status
	if status == "" {
		status = "ACTIVE"
	}
	var categoryID *string
	if in.CategoryID != nil && *in.CategoryID != "" {
		categoryID = in.CategoryID
	}

	entry := &models.ItemCatalog{
		Name:                 strings.TrimSpace(in.Name),
		Description:          in.Description,
		Dimensions:           in.Dimensions,
		Weight:               in.Weight,
		StorageConditions:    in.StorageConditions,
		HandlingInstructions: in.HandlingInstructions,
		MinimumStockLevel:    in.MinimumStockLevel,
		ReorderPoint:         in.ReorderPoint,
		Status:               status,
		CategoryID:           categoryID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategory(tx, entry.CategoryID); err != nil {
			return err
		}
		if err := checkOffers(tx, in.Suppliers); err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		rows := make([]models.SupplierItem, 0, len(in.Suppliers))
		for _, o := range in.Suppliers {
			rows = append(rows, offerRow(entry.ID, o))
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetItemCatalog(ctx, entry.ID)
}

// UpdateItemCatalog edits a catalog entry. Supplier links not present in
// the update are removed and the rest are upserted.
func (s *Service) UpdateItemCatalog(ctx context.Context, id string, in ItemCatalogUpdate) (*models.ItemCatalog, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ItemCatalog{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return utils.NotFound("item catalog", "Item catalog not found")
		}
		if err := checkCategory(tx, in.CategoryID); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Dimensions != nil {
			updates["dimensions"] = *in.Dimensions
		}
		if in.Weight != nil {
			updates["weight"] = *in.Weight
		}
		if in.StorageConditions != nil {
			updates["storage_conditions"] = *in.StorageConditions
		}
		if in.HandlingInstructions != nil {
			updates["handling_instructions"] = *in.HandlingInstructions
		}
		if in.MinimumStockLevel != nil {
			updates["minimum_stock_level"] = *in.MinimumStockLevel
		}
		if in.ReorderPoint != nil {
			updates["reorder_point"] = *in.ReorderPoint
		}
		if in.Status != nil {
			updates["status"] = *in.Status
		}
		if in.CategoryID != nil {
			if *in.CategoryID == "" {
				updates["category_id"] = nil
			} else {
				updates["category_id"] = *in.CategoryID
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.ItemCatalog{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.Suppliers == nil {
			return nil
		}
		if len(in.Suppliers) == 0 {
			return utils.ValidationError("At least one supplier is required")
		}
		if err := checkOffers(tx, in.Suppliers); err != nil {
			return err
		}

		keep := make([]string, 0, len(in.Suppliers))
		for _, o := range in.Suppliers {
			keep = append(keep, o.SupplierID)
		}
		if err := tx.Where("item_catalog_id = ? AND supplier_id NOT IN ?", id, keep).Delete(&models.SupplierItem{}).Error; err != nil {
			return err
		}

		for _, o := range in.Suppliers {
			row := offerRow(id, o)
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "item_catalog_id"}, {Name: "supplier_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"unit_price", "lead_time", "minimum_order_qty", "pack_size", "is_preferred", "supplier_sku", "updated_at",
				}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetItemCatalog(ctx, id)
}

// DeleteItemCatalog removes an entry that no item references
func (s *Service) DeleteItemCatalog(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&models.Item{}).Where("item_catalog_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return utils.BadRequest("ITEM_CATALOG_IN_USE", "Cannot delete item catalog that is in use")
		}

		if err := tx.Where("item_catalog_id = ?", id).Delete(&models.SupplierItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.ItemCatalog{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.NotFound("item catalog", "Item catalog not found")
		}
		return nil
	})
}

// CatalogSuppliers lists the offers for an entry, preferred suppliers first
// and then by ascending unit price
func (s *Service) CatalogSuppliers(ctx context.Context, id string) ([]models.SupplierItem, error) {
	var offers []models.SupplierItem
	err := s.db.WithContext(ctx).
		Preload("Supplier").
		Where("item_catalog_id = ?", id).
		Order("is_preferred DESC").
		Order("unit_price ASC").
		Find(&offers).Error
	return offers, err
}
