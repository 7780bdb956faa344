package models

import "time"

// StockReason classifies why a stock level changed
type StockReason string

const (
	ReasonRestock    StockReason = "RESTOCK"
	ReasonSale       StockReason = "SALE"
	ReasonReturn     StockReason = "RETURN"
	ReasonDamage     StockReason = "DAMAGE"
	ReasonAdjustment StockReason = "ADJUSTMENT"
	ReasonExpired    StockReason = "EXPIRED"
)

// Valid reports whether r is a known reason code
func (r StockReason) Valid() bool {
	switch r {
	case ReasonRestock, ReasonSale, ReasonReturn, ReasonDamage, ReasonAdjustment, ReasonExpired:
		return true
	}
	return false
}

// StockHistory is an append-only audit record of one stock level change.
// Rows are never updated; they are removed only together with their item.
type StockHistory struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ItemID      string      `gorm:"type:varchar(36);not null;index" json:"itemId"`
	OldLevel    int         `gorm:"not null" json:"oldLevel"`
	NewLevel    int         `gorm:"not null" json:"newLevel"`
	Reason      StockReason `gorm:"type:varchar(20);not null;index" json:"reason"`
	Note        string      `json:"note,omitempty"`
	UpdatedByID string      `gorm:"type:varchar(36);not null" json:"updatedById"`
	CreatedAt   time.Time   `gorm:"index" json:"createdAt"`

	// Relations
	UpdatedBy *User `gorm:"foreignKey:UpdatedByID" json:"updatedBy,omitempty"`
}

// TableName specifies the table name for StockHistory model
func (StockHistory) TableName() string {
	return "stock_history"
}
