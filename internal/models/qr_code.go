package models

// QRCode is a scannable link pointing at an item's public page
type QRCode struct {
	Base
	ItemID string `gorm:"type:varchar(36);not null;index" json:"itemId"`
	Code   string `gorm:"uniqueIndex;not null" json:"code"`

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// TableName specifies the table name for QRCode model
func (QRCode) TableName() string {
	return "qr_codes"
}
