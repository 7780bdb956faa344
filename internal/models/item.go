package models

import "time"

// ItemStatus describes the availability of an item
type ItemStatus string

const (
	ItemAvailable  ItemStatus = "AVAILABLE"
	ItemLowStock   ItemStatus = "LOW_STOCK"
	ItemOutOfStock ItemStatus = "OUT_OF_STOCK"
	ItemExpired    ItemStatus = "EXPIRED"
	ItemDamaged    ItemStatus = "DAMAGED"
)

// Valid reports whether s is a known item status
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemAvailable, ItemLowStock, ItemOutOfStock, ItemExpired, ItemDamaged:
		return true
	}
	return false
}

// Item is a stocked article at a warehouse location
type Item struct {
	Base
	Name                 string     `gorm:"not null;index" json:"name"`
	Description          string     `json:"description"`
	Dimensions           string     `json:"dimensions"`
	Weight               *float64   `json:"weight"`
	StorageConditions    string     `json:"storageConditions"`
	HandlingInstructions string     `json:"handlingInstructions"`
	StockLevel           int        `gorm:"not null;default:0" json:"stockLevel"`
	MinimumStockLevel    int        `gorm:"not null;default:0" json:"minimumStockLevel"`
	Status               ItemStatus `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	Warehouse            string     `json:"warehouse"`
	Aisle                string     `json:"aisle"`
	Shelf                string     `json:"shelf"`
	ExpiryDate           *time.Time `json:"expiryDate"`
	LastPurchaseDate     *time.Time `json:"lastPurchaseDate"`

	SupplierID    *string `gorm:"type:varchar(36);index" json:"supplierId"`
	CategoryID    *string `gorm:"type:varchar(36);index" json:"categoryId"`
	ItemCatalogID *string `gorm:"type:varchar(36);index" json:"itemCatalogId"`
	UserID        *string `gorm:"type:varchar(36)" json:"userId"`

	// Relations
	Supplier    *Supplier    `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Category    *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	ItemCatalog *ItemCatalog `gorm:"foreignKey:ItemCatalogID" json:"itemCatalog,omitempty"`
	User        *User        `gorm:"foreignKey:UserID" json:"createdBy,omitempty"`
	QRCodes     []QRCode     `gorm:"foreignKey:ItemID" json:"qrCodes,omitempty"`
}

// TableName specifies the table name for Item model
func (Item) TableName() string {
	return "items"
}

// PublicItem is the read-only view served to unauthenticated QR scans
type PublicItem struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	Dimensions           string     `json:"dimensions"`
	Weight               *float64   `json:"weight"`
	StorageConditions    string     `json:"storageConditions"`
	HandlingInstructions string     `json:"handlingInstructions"`
	StockLevel           int        `json:"stockLevel"`
	Status               ItemStatus `json:"status"`
	Warehouse            string     `json:"warehouse"`
	Aisle                string     `json:"aisle"`
	Shelf                string     `json:"shelf"`
	Category             string     `json:"category,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// Public projects an item onto its public view
func (i *Item) Public() PublicItem {
	p := PublicItem{
		ID:                   i.ID,
		Name:                 i.Name,
		Description:          i.Description,
		Dimensions:           i.Dimensions,
		Weight:               i.Weight,
		StorageConditions:    i.StorageConditions,
		HandlingInstructions: i.HandlingInstructions,
		StockLevel:           i.StockLevel,
		Status:               i.Status,
		Warehouse:            i.Warehouse,
		Aisle:                i.Aisle,
		Shelf:                i.Shelf,
		CreatedAt:            i.CreatedAt,
	}
	if i.Category != nil {
		p.Category = i.Category.Name
	}
	return p
}
