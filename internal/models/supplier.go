package models

import (
	"time"

	"gorm.io/datatypes"
)

// SupplierStatus is the commercial standing of a supplier
type SupplierStatus string

const (
	SupplierActive      SupplierStatus = "ACTIVE"
	SupplierInactive    SupplierStatus = "INACTIVE"
	SupplierPending     SupplierStatus = "PENDING"
	SupplierSuspended   SupplierStatus = "SUSPENDED"
	SupplierBlacklisted SupplierStatus = "BLACKLISTED"
)

// RiskLevel grades supplier risk
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Supplier is a vendor that items are purchased from
type Supplier struct {
	Base
	Name            string         `gorm:"not null;index" json:"name"`
	Email           string         `gorm:"index" json:"email,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	Address         string         `json:"address,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	TaxID           string         `json:"taxId,omitempty"`
	Website         string         `json:"website,omitempty"`
	PaymentTerms    string         `json:"paymentTerms,omitempty"`
	Currency        string         `gorm:"default:'USD'" json:"currency"`
	DiversityStatus string         `json:"diversityStatus,omitempty"`
	Status          SupplierStatus `gorm:"type:varchar(16);not null;default:'ACTIVE';index" json:"status"`
	Rating          float64        `gorm:"default:0" json:"rating"`
	RiskLevel       RiskLevel      `gorm:"type:varchar(16);not null;default:'LOW'" json:"riskLevel"`

	// Relations
	Categories     []Category              `gorm:"many2many:supplier_categories" json:"categories,omitempty"`
	Contacts       []SupplierContact       `gorm:"foreignKey:SupplierID" json:"contacts,omitempty"`
	Documents      []SupplierDocument      `gorm:"foreignKey:SupplierID" json:"documents,omitempty"`
	Qualifications []SupplierQualification `gorm:"foreignKey:SupplierID" json:"qualifications,omitempty"`
	Communications []SupplierCommunication `gorm:"foreignKey:SupplierID" json:"communications,omitempty"`
}

// TableName specifies the table name for Supplier model
func (Supplier) TableName() string {
	return "suppliers"
}

// SupplierContact is a person at a supplier
type SupplierContact struct {
	Base
	SupplierID string `gorm:"type:varchar(36);not null;index" json:"supplierId"`
	Name       string `gorm:"not null" json:"name"`
	Title      string `json:"title,omitempty"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	IsPrimary  bool   `gorm:"default:false" json:"isPrimary"`
}

func (SupplierContact) TableName() string {
	return "supplier_contacts"
}

// Document types accepted for supplier documents
var DocumentTypes = []string{"CONTRACT", "CERTIFICATION", "INSURANCE", "LICENSE", "FINANCIAL", "COMPLIANCE", "OTHER"}

// SupplierDocument is a contract, certificate or similar file reference
type SupplierDocument struct {
	Base
	SupplierID string     `gorm:"type:varchar(36);not null;index" json:"supplierId"`
	Type       string     `gorm:"type:varchar(20);not null" json:"type"`
	Name       string     `gorm:"not null" json:"name"`
	URL        string     `gorm:"not null" json:"url"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
}

func (SupplierDocument) TableName() string {
	return "supplier_documents"
}

// SupplierQualification is unique per supplier and type
type SupplierQualification struct {
	Base
	SupplierID  string                      `gorm:"type:varchar(36);not null;uniqueIndex:idx_supplier_qualification" json:"supplierId"`
	Type        string                      `gorm:"not null;uniqueIndex:idx_supplier_qualification" json:"type"`
	Status      string                      `gorm:"type:varchar(16);not null" json:"status"`
	ValidFrom   time.Time                   `json:"validFrom"`
	ValidUntil  *time.Time                  `json:"validUntil,omitempty"`
	Attachments datatypes.JSONSlice[string] `json:"attachments"`
	Notes       string                      `json:"notes,omitempty"`
}

func (SupplierQualification) TableName() string {
	return "supplier_qualifications"
}

// SupplierCommunication logs an email, meeting or call with a supplier
type SupplierCommunication struct {
	Base
	SupplierID  string                      `gorm:"type:varchar(36);not null;index" json:"supplierId"`
	Type        string                      `gorm:"type:varchar(16);not null" json:"type"`
	Subject     string                      `gorm:"not null" json:"subject"`
	Content     string                      `gorm:"not null" json:"content"`
	Attachments datatypes.JSONSlice[string] `json:"attachments"`
	Sender      string                      `json:"sender"`
	Recipient   string                      `json:"recipient"`
}

func (SupplierCommunication) TableName() string {
	return "supplier_communications"
}
