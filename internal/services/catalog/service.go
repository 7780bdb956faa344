// Package catalog manages categories and item catalog master data.
package catalog

import (
	"github.com/xelth-com/stockflow/internal/database"
)

// Service handles categories and item catalogs
type Service struct {
	db *database.DB
}

// NewService creates a catalog service
func NewService(db *database.DB) *Service {
	return &Service{db: db}
}
