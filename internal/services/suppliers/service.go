// Package suppliers manages vendors, their contacts and compliance records.
package suppliers

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

// Service handles supplier records
type Service struct {
	db *database.DB
}

// NewService creates a supplier service
func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

// ContactInput describes a supplier contact person
type ContactInput struct {
	Name       string `json:"name" validate:"required,min=2"`
	Title      string `json:"title"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	IsPrimary  bool   `json:"isPrimary"`
}

// CreateInput is the body of a new supplier
type CreateInput struct {
	Name            string         `json:"name" validate:"required,min=2"`
	Email           string         `json:"email" validate:"omitempty,email"`
	Phone           string         `json:"phone"`
	Address         string         `json:"address"`
	Notes           string         `json:"notes"`
	TaxID           string         `json:"taxId"`
	Website         string         `json:"website" validate:"omitempty,url"`
	PaymentTerms    string         `json:"paymentTerms"`
	Currency        string         `json:"currency"`
	DiversityStatus string         `json:"diversityStatus"`
	Categories      []string       `json:"categories"`
	Contacts        []ContactInput `json:"contacts" validate:"omitempty,dive"`
}

// UpdateInput changes the fields that are present. A non-nil Categories
// replaces the supplier's categories.
type UpdateInput struct {
	Name            *string                `json:"name" validate:"omitempty,min=2"`
	Email           *string                `json:"email" validate:"omitempty,email"`
	Phone           *string                `json:"phone"`
	Address         *string                `json:"address"`
	Notes           *string                `json:"notes"`
	TaxID           *string                `json:"taxId"`
	Website         *string                `json:"website" validate:"omitempty,url"`
	PaymentTerms    *string                `json:"paymentTerms"`
	Currency        *string                `json:"currency"`
	DiversityStatus *string                `json:"diversityStatus"`
	Status          *models.SupplierStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE PENDING SUSPENDED BLACKLISTED"`
	Rating          *float64               `json:"rating" validate:"omitempty,gte=0,lte=5"`
	RiskLevel       *models.RiskLevel      `json:"riskLevel" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Categories      []string               `json:"categories"`
}

// DocumentInput attaches a document reference to a supplier
type DocumentInput struct {
	Type       string     `json:"type" validate:"required,oneof=CONTRACT CERTIFICATION INSURANCE LICENSE FINANCIAL COMPLIANCE OTHER"`
	Name       string     `json:"name" validate:"required,min=2"`
	URL        string     `json:"url" validate:"required,url"`
	ExpiryDate *time.Time `json:"expiryDate"`
}

// CommunicationInput logs an exchange with a supplier
type CommunicationInput struct {
	Type        string   `json:"type" validate:"required,oneof=EMAIL MEETING PHONE AUDIT OTHER"`
	Subject     string   `json:"subject" validate:"required,min=2"`
	Content     string   `json:"content" validate:"required"`
	Attachments []string `json:"attachments" validate:"omitempty,dive,url"`
	Sender      string   `json:"sender" validate:"required,email"`
	Recipient   string   `json:"recipient" validate:"required,email"`
}

// QualificationInput creates or replaces the qualification of one type
type QualificationInput struct {
	Type        string     `json:"type" validate:"required,min=2"`
	Status      string     `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED EXPIRED"`
	ValidFrom   time.Time  `json:"validFrom" validate:"required"`
	ValidUntil  *time.Time `json:"validUntil"`
	Attachments []string   `json:"attachments" validate:"omitempty,dive,url"`
	Notes       string     `json:"notes"`
}

// ListFilter narrows and pages supplier listings
type ListFilter struct {
	Search     string
	Status     models.SupplierStatus
	CategoryID string
	RiskLevel  models.RiskLevel
	Page       int
	Limit      int
}

// Page is one page of suppliers
type Page struct {
	Suppliers []models.Supplier `json:"suppliers"`
	Total     int64             `json:"total"`
	Pages     int               `json:"pages"`
}

// Metrics summarises how a supplier performs on purchase orders
type Metrics struct {
	TotalOrders         int64           `json:"totalOrders"`
	OnTimeDeliveryRate  float64         `json:"onTimeDeliveryRate"`
	QualityIssues       int64           `json:"qualityIssues"`
	Returns             int64           `json:"returns"`
	AverageResponseTime float64         `json:"averageResponseTime"`
	TotalSpend          decimal.Decimal `json:"totalSpend"`
}

func withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Contacts").
		Preload("Documents").
		Preload("Categories").
		Preload("Qualifications").
		Preload("Communications", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		})
}

// List returns a page of suppliers ordered by name
func (s *Service) List(ctx context.Context, f ListFilter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	q := s.db.WithContext(ctx).Model(&models.Supplier{})
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RiskLevel != "" {
		q = q.Where("risk_level = ?", f.RiskLevel)
	}
	if f.CategoryID != "" {
		q = q.Where("id IN (?)", s.db.Table("supplier_categories").Select("supplier_id").Where("category_id = ?", f.CategoryID))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var list []models.Supplier
	err := withRelations(q).
		Order("name").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Suppliers: list,
		Total:     total,
		Pages:     int(math.Ceil(float64(total) / float64(f.Limit))),
	}, nil
}

// Get loads a supplier with all of its records
func (s *Service) Get(ctx context.Context, id string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := withRelations(s.db.WithContext(ctx)).First(&supplier, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("supplier", "Supplier not found")
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func loadCategories(tx *gorm.DB, ids []string) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []models.Category
	if err := tx.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) != len(ids) {
		return nil, utils.NotFound("category", "Category not found")
	}
	return categories, nil
}

func exists(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&models.Supplier{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return utils.NotFound("supplier", "Supplier not found")
	}
	return nil
}

// Create stores a supplier together with its contacts and categories
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Supplier, error) {
	supplier := &models.Supplier{
		Name:            strings.TrimSpace(in.Name),
		Email:           in.Email,
		Phone:           in.Phone,
		Address:         in.Address,
		Notes:           in.Notes,
		TaxID:           in.TaxID,
		Website:         in.Website,
		PaymentTerms:    in.PaymentTerms,
		Currency:        in.Currency,
		DiversityStatus: in.DiversityStatus,
		Status:          models.SupplierActive,
		RiskLevel:       models.RiskLow,
	}
	if supplier.Currency == "" {
		supplier.Currency = "USD"
	}
	for _, c := range in.Contacts {
		supplier.Contacts = append(supplier.Contacts, models.SupplierContact{
			Name:       c.Name,
			Title:      c.Title,
			Email:      c.Email,
			Phone:      c.Phone,
			Department: c.Department,
			IsPrimary:  c.IsPrimary,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories, err := loadCategories(tx, in.Categories)
		if err != nil {
			return err
		}
		supplier.Categories = categories
		return tx.Omit("Categories.*").Create(supplier).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("supplier created", zap.String("supplier", supplier.ID), zap.String("name", supplier.Name))
	return s.Get(ctx, supplier.ID)
}

// Update edits a supplier's fields and optionally its categories
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Supplier, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var supplier models.Supplier
		if err := tx.First(&supplier, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFound("supplier", "Supplier not found")
			}
			return err
		}

		updates := map[string]interface{}{}
		for column, v := range map[string]*string{
			"name":             in.Name,
			"email":            in.Email,
			"phone":            in.Phone,
			"address":          in.Address,
			"notes":            in.Notes,
			"tax_id":           in.TaxID,
			"website":          in.Website,
			"payment_terms":    in.PaymentTerms,
			"currency":         in.Currency,
			"diversity_status": in.DiversityStatus,
		} {
			if v != nil {
				updates[column] = *v
			}
		}
		if in.Status != nil {
			updates["status"] = *in.Status
		}
		if in.Rating != nil {
			updates["rating"] = *in.Rating
		}
		if in.RiskLevel != nil {
			updates["risk_level"] = *in.RiskLevel
		}
		if len(updates) > 0 {
			if err := tx.Model(&supplier).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.Categories == nil {
			return nil
		}
		categories, err := loadCategories(tx, in.Categories)
		if err != nil {
			return err
		}
		return tx.Model(&supplier).Association("Categories").Replace(categories)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// AddDocument attaches a document to a supplier
func (s *Service) AddDocument(ctx context.Context, supplierID string, in DocumentInput) (*models.SupplierDocument, error) {
	doc := &models.SupplierDocument{
		SupplierID: supplierID,
		Type:       in.Type,
		Name:       in.Name,
		URL:        in.URL,
		ExpiryDate: in.ExpiryDate,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, supplierID); err != nil {
			return err
		}
		return tx.Create(doc).Error
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// AddCommunication logs an exchange with a supplier
func (s *Service) AddCommunication(ctx context.Context, supplierID string, in CommunicationInput) (*models.SupplierCommunication, error) {
	attachments := in.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	comm := &models.SupplierCommunication{
		SupplierID:  supplierID,
		Type:        in.Type,
		Subject:     in.Subject,
		Content:     in.Content,
		Attachments: datatypes.JSONSlice[string](attachments),
		Sender:      in.Sender,
		Recipient:   in.Recipient,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, supplierID); err != nil {
			return err
		}
		return tx.Create(comm).Error
	})
	if err != nil {
		return nil, err
	}
	return comm, nil
}

// UpsertQualification creates the qualification of the given type or
// replaces the existing one
func (s *Service) UpsertQualification(ctx context.Context, supplierID string, in QualificationInput) (*models.SupplierQualification, error) {
	attachments := in.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	q := &models.SupplierQualification{
		SupplierID:  supplierID,
		Type:        in.Type,
		Status:      in.Status,
		ValidFrom:   in.ValidFrom,
		ValidUntil:  in.ValidUntil,
		Attachments: datatypes.JSONSlice[string](attachments),
		Notes:       in.Notes,
	}

	var stored models.SupplierQualification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, supplierID); err != nil {
			return err
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "supplier_id"}, {Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "valid_from", "valid_until", "attachments", "notes", "updated_at"}),
		}).Create(q).Error
		if err != nil {
			return err
		}
		// on conflict the surviving row keeps its original id, not q.ID
		return tx.Where("supplier_id = ? AND type = ?", supplierID, in.Type).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Metrics derives delivery and spend figures from purchase orders, goods
// receipts and e-mail communications
func (s *Service) Metrics(ctx context.Context, supplierID string) (*Metrics, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, supplierID); err != nil {
		return nil, err
	}

	m := &Metrics{TotalSpend: decimal.Zero}

	if err := db.Model(&models.PurchaseOrder{}).Where("supplier_id = ?", supplierID).Count(&m.TotalOrders).Error; err != nil {
		return nil, err
	}

	var received []decimal.Decimal
	err := db.Model(&models.PurchaseOrder{}).
		Where("supplier_id = ? AND status = ?", supplierID, models.POReceived).
		Pluck("total_amount", &received).Error
	if err != nil {
		return nil, err
	}
	for _, amount := range received {
		m.TotalSpend = m.TotalSpend.Add(amount)
	}
	if m.TotalOrders > 0 {
		m.OnTimeDeliveryRate = float64(len(received)) / float64(m.TotalOrders) * 100
	}

	var rejected int64
	err = db.Model(&models.GoodsReceipt{}).
		Joins("JOIN purchase_orders ON purchase_orders.id = goods_receipts.purchase_order_id").
		Where("purchase_orders.supplier_id = ? AND goods_receipts.status = ?", supplierID, models.ReceiptRejected).
		Count(&rejected).Error
	if err != nil {
		return nil, err
	}
	m.QualityIssues = rejected
	m.Returns = rejected

	var sent []time.Time
	err = db.Model(&models.SupplierCommunication{}).
		Where("supplier_id = ? AND type = ?", supplierID, "EMAIL").
		Order("created_at").
		Pluck("created_at", &sent).Error
	if err != nil {
		return nil, err
	}
	if len(sent) > 1 {
		var total time.Duration
		for i := 1; i < len(sent); i++ {
			total += sent[i].Sub(sent[i-1])
		}
		hours := total.Hours() / float64(len(sent)-1)
		m.AverageResponseTime = math.Round(hours*10) / 10
	}

	return m, nil
}
