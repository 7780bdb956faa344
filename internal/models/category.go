package models

// Category groups items, catalogs and suppliers
type Category struct {
	Base
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description,omitempty"`

	// ItemCount is filled by list queries and not stored
	ItemCount int64 `gorm:"-" json:"itemCount"`
}

// TableName specifies the table name for Category model
func (Category) TableName() string {
	return "categories"
}
