package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/xelth-com/stockflow/internal/config"
	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/catalog"
	"github.com/xelth-com/stockflow/internal/services/inventory"
	"github.com/xelth-com/stockflow/internal/services/suppliers"
	"github.com/xelth-com/stockflow/internal/services/users"
	"github.com/xelth-com/stockflow/internal/utils"
)

func main() {
	fmt.Println("Stockflow demo data seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// 1. Administrator
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatalf("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}
	admin, err := users.NewService(db, cfg).Register(ctx, users.RegisterInput{
		Email: email, Password: password, Name: "Administrator", Role: models.RoleAdmin,
	}, models.RoleAdmin)
	switch {
	case err == nil:
		fmt.Printf("   created admin %s\n", admin.Email)
	case hasCode(err, "EMAIL_EXISTS"):
		fmt.Printf("   admin %s already exists\n", email)
		admin = &models.User{}
		if err := db.Where("email = ?", email).First(admin).Error; err != nil {
			log.Fatalf("Failed to load admin: %v", err)
		}
	default:
		log.Fatalf("Failed to create admin: %v", err)
	}

	// 2. Demo catalog, skipped once any item exists
	var count int64
	db.Model(&models.Item{}).Count(&count)
	if count > 0 {
		fmt.Printf("Database already has %d items, leaving inventory untouched\n", count)
		return
	}

	category, err := catalog.NewService(db).CreateCategory(ctx, catalog.CategoryInput{
		Name: "Packaging", Description: "Boxes, wrap and tape",
	})
	if err != nil {
		log.Fatalf("Failed to create category: %v", err)
	}

	supplier, err := suppliers.NewService(db).Create(ctx, suppliers.CreateInput{
		Name:       "Northwind Packaging",
		Email:      "sales@northwind.example",
		Categories: []string{category.ID},
	})
	if err != nil {
		log.Fatalf("Failed to create supplier: %v", err)
	}

	items := inventory.NewService(db, nil)
	demo := []inventory.CreateInput{
		{Name: "Cardboard box 40x30x30", StockLevel: 120, MinimumStockLevel: 40, Warehouse: "Main", Aisle: "A", Shelf: "1"},
		{Name: "Stretch wrap 500mm", StockLevel: 12, MinimumStockLevel: 15, Warehouse: "Main", Aisle: "A", Shelf: "2"},
		{Name: "Packing tape", StockLevel: 0, MinimumStockLevel: 20, Warehouse: "Main", Aisle: "B", Shelf: "1"},
	}
	for _, in := range demo {
		in.SupplierID = supplier.ID
		in.CategoryID = &category.ID
		item, err := items.Create(ctx, in, admin.ID)
		if err != nil {
			log.Printf("Failed to create item %s: %v", in.Name, err)
			continue
		}
		fmt.Printf("   created %s (%d, %s)\n", item.Name, item.StockLevel, item.Status)
	}
	fmt.Println("Demo data ready")
}

func hasCode(err error, code string) bool {
	var apiErr *utils.APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
