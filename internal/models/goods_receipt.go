package models

import "time"

// ReceiptStatus is the state of a goods receipt
type ReceiptStatus string

const (
	ReceiptPending   ReceiptStatus = "PENDING"
	ReceiptCompleted ReceiptStatus = "COMPLETED"
	ReceiptRejected  ReceiptStatus = "REJECTED"
)

// Valid reports whether s is a known receipt status
func (s ReceiptStatus) Valid() bool {
	switch s {
	case ReceiptPending, ReceiptCompleted, ReceiptRejected:
		return true
	}
	return false
}

// Terminal reports whether s is COMPLETED or REJECTED
func (s ReceiptStatus) Terminal() bool {
	return s == ReceiptCompleted || s == ReceiptRejected
}

// GoodsReceipt records the physical arrival of goods for a purchase order
type GoodsReceipt struct {
	Base
	PurchaseOrderID string        `gorm:"type:varchar(36);not null;index" json:"purchaseOrderId"`
	ReceivedByID    string        `gorm:"type:varchar(36);not null" json:"receivedById"`
	Status          ReceiptStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	Notes           string        `json:"notes,omitempty"`

	// Relations
	PurchaseOrder *PurchaseOrder     `gorm:"foreignKey:PurchaseOrderID" json:"purchaseOrder,omitempty"`
	ReceivedBy    *User              `gorm:"foreignKey:ReceivedByID" json:"receivedBy,omitempty"`
	Lines         []GoodsReceiptLine `gorm:"foreignKey:GoodsReceiptID" json:"items"`
}

// TableName specifies the table name for GoodsReceipt model
func (GoodsReceipt) TableName() string {
	return "goods_receipts"
}

// GoodsReceiptLine is one received item
type GoodsReceiptLine struct {
	Base
	GoodsReceiptID string     `gorm:"type:varchar(36);not null;index" json:"goodsReceiptId"`
	ItemID         string     `gorm:"type:varchar(36);not null;index" json:"itemId"`
	Quantity       int        `gorm:"not null" json:"quantity"`
	BatchNumber    string     `json:"batchNumber,omitempty"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// TableName specifies the table name for GoodsReceiptLine model
func (GoodsReceiptLine) TableName() string {
	return "goods_receipt_items"
}
