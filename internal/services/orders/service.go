package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/events"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/stock"
	"github.com/xelth-com/stockflow/internal/utils"
)

// Service runs order fulfilment against inventory
type Service struct {
	db        *database.DB
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates an order service
func NewService(db *database.DB, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		db:        db,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LineInput is one requested item
type LineInput struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

// CreateInput is the body of an order request
type CreateInput struct {
	UserID string      `json:"userId" validate:"required"`
	Items  []LineInput `json:"items" validate:"required,min=1,dive"`
}

// ListFilter narrows order listings
type ListFilter struct {
	Status models.OrderStatus
	UserID string
}

// Stats counts orders per status
type Stats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Approved  int64 `json:"approved"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	Denied    int64 `json:"denied"`
}

// DayCount is the number of orders created on one UTC day
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Analytics summarizes orders for dashboards
type Analytics struct {
	Stats  Stats      `json:"stats"`
	Trends []DayCount `json:"trends"`
}

func validateCreate(in CreateInput) error {
	if in.UserID == "" {
		return utils.ValidationError("User ID is required")
	}
	if len(in.Items) == 0 {
		return utils.ValidationError("Order must contain at least one item")
	}
	seen := make(map[string]bool, len(in.Items))
	for _, line := range in.Items {
		if line.ID == "" {
			return utils.ValidationError("Item ID is required")
		}
		if line.Quantity < 1 {
			return utils.ValidationError("Quantity must be at least 1")
		}
		if seen[line.ID] {
			return utils.ValidationError(fmt.Sprintf("Item %s is listed more than once", line.ID))
		}
		seen[line.ID] = true
	}
	return nil
}

// Create places an order. Existence and stock checks, the order insert, the
// stock decrements and their history entries all commit together or not at all.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID string) (*models.Order, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	ids := make([]string, len(in.Items))
	for i, line := range in.Items {
		ids[i] = line.ID
	}

	order := &models.Order{UserID: in.UserID, Status: models.OrderPending}
	var changes []events.StockChanged

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).Where("id = ?", in.UserID).Count(&users).Error; err != nil {
			return err
		}
		if users == 0 {
			return utils.NotFound("user", "User not found")
		}

		items, err := stock.LockItems(tx, ids)
		if err != nil {
			return fmt.Errorf("failed to load items: %w", err)
		}
		if len(items) != len(ids) {
			return utils.BadRequest("ITEMS_NOT_FOUND", "One or more items not found")
		}

		byID := make(map[string]*models.Item, len(items))
		for i := range items {
			byID[items[i].ID] = &items[i]
		}

		var short []string
		for _, line := range in.Items {
			if item := byID[line.ID]; line.Quantity > item.StockLevel {
				short = append(short, item.Name)
			}
		}
		if len(short) > 0 {
			return utils.BadRequest("INSUFFICIENT_STOCK", "Insufficient stock for items: "+strings.Join(short, ", "))
		}

		for _, line := range in.Items {
			order.Lines = append(order.Lines, models.OrderLine{ItemID: line.ID, Quantity: line.Quantity})
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		note := "Order " + order.ID
		for _, line := range in.Items {
			item := byID[line.ID]
			ev, err := stock.Apply(tx, item, item.StockLevel-line.Quantity, models.ReasonSale, actorID, note, nil)
			if err != nil {
				return err
			}
			changes = append(changes, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range changes {
		s.publisher.Publish(ctx, ev)
	}
	zap.L().Info("order created", zap.String("order", order.ID), zap.Int("lines", len(order.Lines)), zap.String("actor", actorID))

	return s.Get(ctx, order.ID)
}

func (s *Service) preloaded(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("User").
		Preload("Lines").
		Preload("Lines.Item")
}

// List returns orders, newest first
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Order, error) {
	q := s.preloaded(ctx).Order("created_at DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}

	var orders []models.Order
	err := q.Find(&orders).Error
	return orders, err
}

// Get loads one order with its lines
func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.preloaded(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("order", "Order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves an order along its lifecycle.
// PENDING -> APPROVED | DENIED | CANCELLED, APPROVED -> COMPLETED | DENIED | CANCELLED.
func (s *Service) UpdateStatus(ctx context.Context, id string, next models.OrderStatus, actorID string) (*models.Order, error) {
	if !next.Valid() {
		return nil, utils.ValidationError("Invalid order status")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("order", "Order not found")
		}
		if err != nil {
			return err
		}

		if !order.Status.CanTransitionTo(next) {
			return utils.BadRequest("INVALID_STATUS_TRANSITION",
				fmt.Sprintf("Cannot change order status from %s to %s", order.Status, next))
		}

		return tx.Model(&order).Update("status", next).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order status changed", zap.String("order", id), zap.String("status", string(next)), zap.String("actor", actorID))
	return s.Get(ctx, id)
}

// Delete removes an order and its lines. Stock is not restored.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("order_id = ?", id).Delete(&models.OrderLine{})
		if res.Error != nil {
			return res.Error
		}
		res = tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.NotFound("order", "Order not found")
		}
		return nil
	})
}

// Analytics counts orders per status and per day over the last seven days
func (s *Service) Analytics(ctx context.Context) (*Analytics, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var out Analytics
	for _, r := range rows {
		out.Stats.Total += r.Count
		switch r.Status {
		case models.OrderPending:
			out.Stats.Pending = r.Count
		case models.OrderApproved:
			out.Stats.Approved = r.Count
		case models.OrderCompleted:
			out.Stats.Completed = r.Count
		case models.OrderCancelled:
			out.Stats.Cancelled = r.Count
		case models.OrderDenied:
			out.Stats.Denied = r.Count
		}
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -6)

	var created []time.Time
	err = s.db.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ?", start).
		Pluck("created_at", &created).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, 7)
	for _, ts := range created {
		counts[ts.UTC().Format("2006-01-02")]++
	}
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		out.Trends = append(out.Trends, DayCount{Date: day, Count: counts[day]})
	}

	return &out, nil
}
