// Package qrcodes issues scannable links to an item's public page.
package qrcodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/printer"
	"github.com/xelth-com/stockflow/internal/utils"
)

// Service manages QR codes
type Service struct {
	db      *database.DB
	baseURL string
	now     func() time.Time
}

// NewService creates a QR code service. baseURL is the public address the
// codes point at.
func NewService(db *database.DB, baseURL string) *Service {
	return &Service{db: db, baseURL: strings.TrimSuffix(baseURL, "/"), now: time.Now}
}

func (s *Service) itemURL(itemID string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/i/%s?t=%d&u=%s", s.baseURL, itemID, s.now().UnixMilli(), token)
}

func (s *Service) loadItem(ctx context.Context, itemID string) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).First(&item, "id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("item", "Item not found")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create issues a new code for an item
func (s *Service) Create(ctx context.Context, itemID string) (*models.QRCode, error) {
	if _, err := s.loadItem(ctx, itemID); err != nil {
		return nil, err
	}
	code := &models.QRCode{ItemID: itemID, Code: s.itemURL(itemID)}
	if err := s.db.WithContext(ctx).Create(code).Error; err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}
	return code, nil
}

// ListForItem returns an item's codes, newest first
func (s *Service) ListForItem(ctx context.Context, itemID string) ([]models.QRCode, error) {
	var codes []models.QRCode
	err := s.db.WithContext(ctx).Where("item_id = ?", itemID).Order("created_at DESC").Find(&codes).Error
	return codes, err
}

// ListAll returns every code with its item, newest first
func (s *Service) ListAll(ctx context.Context) ([]models.QRCode, error) {
	var codes []models.QRCode
	err := s.db.WithContext(ctx).Preload("Item").Order("created_at DESC").Find(&codes).Error
	return codes, err
}

// Delete removes one of an item's codes
func (s *Service) Delete(ctx context.Context, itemID, id string) error {
	res := s.db.WithContext(ctx).Where("item_id = ? AND id = ?", itemID, id).Delete(&models.QRCode{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.NotFound("qr code", "QR code not found")
	}
	return nil
}

// Image renders a code as a PNG of the given edge length in pixels
func (s *Service) Image(ctx context.Context, id string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	var code models.QRCode
	err := s.db.WithContext(ctx).First(&code, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("qr code", "QR code not found")
	}
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(code.Code, qrcode.Medium, size)
}

// Labels prints a PDF sheet for an item. The newest code is used and one is
// issued when the item has none yet.
func (s *Service) Labels(ctx context.Context, itemID string, cfg printer.LabelConfig) ([]byte, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, utils.ValidationError(err.Error())
	}

	var code models.QRCode
	err = s.db.WithContext(ctx).Where("item_id = ?", itemID).Order("created_at DESC").First(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created, cerr := s.Create(ctx, itemID)
		if cerr != nil {
			return nil, cerr
		}
		code = *created
	} else if err != nil {
		return nil, err
	}

	var location []string
	for _, part := range []string{item.Warehouse, item.Aisle, item.Shelf} {
		if part != "" {
			location = append(location, part)
		}
	}

	return printer.GenerateItemLabelsPDF(printer.ItemLabel{
		Name:     item.Name,
		Location: strings.Join(location, " / "),
		URL:      code.Code,
	}, cfg)
}
