package catalog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

// CategoryInput is the body for creating or renaming a category
type CategoryInput struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
}

// ListCategories returns all categories by name with their item counts
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		CategoryID string
		Count      int64
	}
	err := s.db.WithContext(ctx).Model(&models.Item{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IS NOT NULL").
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int64, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.Count
	}
	for i := range categories {
		categories[i].ItemCount = byID[categories[i].ID]
	}
	return categories, nil
}

func nameTaken(tx *gorm.DB, name, exceptID string) (bool, error) {
	var count int64
	q := tx.Model(&models.Category{}).Where("name = ?", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// CreateCategory adds a category with a unique name
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	category := &models.Category{Name: strings.TrimSpace(in.Name), Description: in.Description}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, category.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return utils.BadRequest("CATEGORY_EXISTS", "Category already exists")
		}
		return tx.Create(category).Error
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory renames a category or changes its description
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFound("category", "Category not found")
			}
			return err
		}

		name := strings.TrimSpace(in.Name)
		taken, err := nameTaken(tx, name, id)
		if err != nil {
			return err
		}
		if taken {
			return utils.BadRequest("CATEGORY_EXISTS", "Category name already exists")
		}

		category.Name = name
		category.Description = in.Description
		return tx.Model(&category).Updates(map[string]interface{}{"name": name, "description": in.Description}).Error
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory removes a category. Items in it become uncategorised.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Item{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ItemCatalog{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM supplier_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.NotFound("category", "Category not found")
		}
		zap.L().Info("category deleted", zap.String("category", id))
		return nil
	})
}
