// Package requests handles checkout and return requests raised by users.
package requests

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

// Service manages requests
type Service struct {
	db *database.DB
}

// NewService creates a request service
func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

// CreateInput is the body of a new request
type CreateInput struct {
	Type     models.RequestType `json:"type" validate:"required,oneof=checkout return"`
	ItemID   string             `json:"itemId" validate:"required"`
	Quantity int                `json:"quantity" validate:"gte=0"`
	Notes    string             `json:"notes"`
}

func withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Item", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name")
	}).Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "email")
	})
}

// Create records a PENDING request for the calling user
func (s *Service) Create(ctx context.Context, in CreateInput, userID string) (*models.Request, error) {
	if in.Type != models.RequestCheckout && in.Type != models.RequestReturn {
		return nil, utils.ValidationError("Type must be checkout or return")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return nil, utils.ValidationError("Quantity must be at least 1")
	}

	req := &models.Request{
		Type:     in.Type,
		Status:   models.RequestPending,
		ItemID:   in.ItemID,
		UserID:   userID,
		Quantity: in.Quantity,
		Notes:    in.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Item{}).Where("id = ?", in.ItemID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return utils.NotFound("item", "Item not found")
		}
		return tx.Create(req).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("request created",
		zap.String("request", req.ID),
		zap.String("type", string(req.Type)),
		zap.String("item", req.ItemID),
		zap.String("user", userID))
	return s.Get(ctx, req.ID)
}

// Get loads a request with its item and user
func (s *Service) Get(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	err := withRelations(s.db.WithContext(ctx)).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("request", "Request not found")
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests, newest first. An empty status lists all of them.
func (s *Service) List(ctx context.Context, status models.RequestStatus) ([]models.Request, error) {
	q := withRelations(s.db.WithContext(ctx)).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.Request
	err := q.Find(&list).Error
	return list, err
}

// UpdateStatus moves a request along PENDING -> APPROVED|DENIED and
// APPROVED -> COMPLETED
func (s *Service) UpdateStatus(ctx context.Context, id string, next models.RequestStatus) (*models.Request, error) {
	switch next {
	case models.RequestPending, models.RequestApproved, models.RequestDenied, models.RequestCompleted:
	default:
		return nil, utils.ValidationError("Invalid request status")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.Request
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("request", "Request not found")
		}
		if err != nil {
			return err
		}
		if !req.Status.CanTransitionTo(next) {
			return utils.BadRequest("INVALID_STATUS_TRANSITION",
				fmt.Sprintf("Cannot change request status from %s to %s", req.Status, next))
		}
		return tx.Model(&req).Update("status", next).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
