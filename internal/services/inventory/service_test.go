package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/events"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

type fixture struct {
	db       *database.DB
	svc      *Service
	rec      *events.Recorder
	user     *models.User
	supplier *models.Supplier
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := database.NewTestDB(t)
	user := &models.User{Email: "admin@example.com", Password: "x", Name: "Admin", Role: models.RoleAdmin}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("creating user: %v", err)
	}
	supplier := &models.Supplier{Name: "Acme", Email: "sales@acme.test", Status: models.SupplierActive}
	if err := db.Create(supplier).Error; err != nil {
		t.Fatalf("creating supplier: %v", err)
	}
	rec := &events.Recorder{}
	return &fixture{db: db, svc: NewService(db, rec), rec: rec, user: user, supplier: supplier}
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *utils.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError %s, got %v", code, err)
	}
	if apiErr.Code != code {
		t.Errorf("Expected code %s, got %s", code, apiErr.Code)
	}
}

func TestCreateRecordsInitialStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, CreateInput{Name: "Pallet wrap", StockLevel: 8, MinimumStockLevel: 2, SupplierID: f.supplier.ID, Warehouse: "A"}, f.user.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if item.StockLevel != 8 || item.Status != models.ItemAvailable {
		t.Errorf("Expected 8 AVAILABLE, got %d %s", item.StockLevel, item.Status)
	}
	if item.Supplier == nil || item.Supplier.Name != "Acme" {
		t.Errorf("Expected supplier to be preloaded")
	}
	if item.UserID == nil || *item.UserID != f.user.ID {
		t.Errorf("Expected creator to be recorded")
	}

	var history []models.StockHistory
	f.db.Where("item_id = ?", item.ID).Find(&history)
	if len(history) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history))
	}
	if history[0].Reason != models.ReasonRestock || history[0].OldLevel != 0 || history[0].NewLevel != 8 || history[0].Note != "Initial stock" {
		t.Errorf("Unexpected history entry: %+v", history[0])
	}
	if len(f.rec.Events) != 1 {
		t.Errorf("Expected 1 event, got %d", len(f.rec.Events))
	}
}

func TestCreateWithoutStock(t *testing.T) {
	f := setup(t)

	item, err := f.svc.Create(context.Background(), CreateInput{Name: "Label roll", SupplierID: f.supplier.ID}, f.user.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if item.Status != models.ItemOutOfStock {
		t.Errorf("Expected OUT_OF_STOCK, got %s", item.Status)
	}

	var count int64
	f.db.Model(&models.StockHistory{}).Where("item_id = ?", item.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected no history, got %d", count)
	}
}

func TestCreateUnknownRefs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{Name: "Tape", SupplierID: "missing"}, f.user.ID)
	expectCode(t, err, "SUPPLIER_NOT_FOUND")

	missing := "missing"
	_, err = f.svc.Create(ctx, CreateInput{Name: "Tape", SupplierID: f.supplier.ID, CategoryID: &missing}, f.user.ID)
	expectCode(t, err, "CATEGORY_NOT_FOUND")

	_, err = f.svc.Create(ctx, CreateInput{Name: "Tape", SupplierID: f.supplier.ID, ItemCatalogID: &missing}, f.user.ID)
	expectCode(t, err, "ITEM_CATALOG_NOT_FOUND")

	var count int64
	f.db.Model(&models.Item{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no items, got %d", count)
	}
}

func TestUpdateStockLevel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, CreateInput{Name: "Gloves", StockLevel: 10, MinimumStockLevel: 4, SupplierID: f.supplier.ID}, f.user.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	level := 3
	shelf := "B2"
	got, err := f.svc.Update(ctx, item.ID, UpdateInput{StockLevel: &level, Shelf: &shelf}, f.user.ID)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.StockLevel != 3 || got.Status != models.ItemLowStock || got.Shelf != "B2" {
		t.Errorf("Expected 3 LOW_STOCK on B2, got %d %s %s", got.StockLevel, got.Status, got.Shelf)
	}

	level = 12
	if _, err := f.svc.Update(ctx, item.ID, UpdateInput{StockLevel: &level}, f.user.ID); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var history []models.StockHistory
	f.db.Where("item_id = ? AND note = ?", item.ID, "Stock level updated").Order("new_level").Find(&history)
	if len(history) != 2 {
		t.Fatalf("Expected 2 update entries, got %d", len(history))
	}
	if history[0].Reason != models.ReasonAdjustment || history[0].OldLevel != 10 || history[0].NewLevel != 3 {
		t.Errorf("Unexpected decrease entry: %+v", history[0])
	}
	if history[1].Reason != models.ReasonRestock || history[1].OldLevel != 3 || history[1].NewLevel != 12 {
		t.Errorf("Unexpected increase entry: %+v", history[1])
	}
}

func TestUpdateWithoutStockChange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, CreateInput{Name: "Crate", StockLevel: 5, MinimumStockLevel: 1, SupplierID: f.supplier.ID}, f.user.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	minimum := 6
	got, err := f.svc.Update(ctx, item.ID, UpdateInput{MinimumStockLevel: &minimum}, f.user.ID)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Status != models.ItemLowStock {
		t.Errorf("Expected LOW_STOCK after raising minimum, got %s", got.Status)
	}

	damaged := models.ItemDamaged
	got, err = f.svc.Update(ctx, item.ID, UpdateInput{Status: &damaged}, f.user.ID)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Status != models.ItemDamaged {
		t.Errorf("Expected DAMAGED to be kept, got %s", got.Status)
	}

	var count int64
	f.db.Model(&models.StockHistory{}).Where("item_id = ?", item.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected only the initial entry, got %d", count)
	}

	_, err = f.svc.Update(ctx, "missing", UpdateInput{}, f.user.ID)
	expectCode(t, err, "ITEM_NOT_FOUND")
}

func TestListFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, in := range []CreateInput{
		{Name: "Steel bolt", StockLevel: 10, SupplierID: f.supplier.ID, Warehouse: "North"},
		{Name: "Brass bolt", SupplierID: f.supplier.ID, Warehouse: "South"},
		{Name: "Washer", StockLevel: 4, SupplierID: f.supplier.ID, Warehouse: "North"},
	} {
		if _, err := f.svc.Create(ctx, in, f.user.ID); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	items, err := f.svc.List(ctx, ListFilter{Search: "BOLT"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Brass bolt" {
		t.Errorf("Expected 2 bolts ordered by name, got %d", len(items))
	}

	items, _ = f.svc.List(ctx, ListFilter{Status: models.ItemOutOfStock})
	if len(items) != 1 || items[0].Name != "Brass bolt" {
		t.Errorf("Expected only the empty item, got %d", len(items))
	}

	items, _ = f.svc.List(ctx, ListFilter{Warehouse: "North"})
	if len(items) != 2 {
		t.Errorf("Expected 2 items in North, got %d", len(items))
	}
}

func TestDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, CreateInput{Name: "Pallet", StockLevel: 2, SupplierID: f.supplier.ID}, f.user.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.db.Create(&models.QRCode{ItemID: item.ID, Code: "https://example.test/i/1"}).Error; err != nil {
		t.Fatalf("creating qr code: %v", err)
	}

	used, err := f.svc.Create(ctx, CreateInput{Name: "Pallet jack", StockLevel: 2, SupplierID: f.supplier.ID}, f.user.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.db.Create(&models.Request{Type: models.RequestCheckout, Status: models.RequestPending, ItemID: used.ID, UserID: f.user.ID, Quantity: 1}).Error; err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if err := f.svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var count int64
	f.db.Model(&models.QRCode{}).Where("item_id = ?", item.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected QR codes to be removed, got %d", count)
	}
	f.db.Model(&models.StockHistory{}).Where("item_id = ?", item.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected history to be removed, got %d", count)
	}

	expectCode(t, f.svc.Delete(ctx, used.ID), "ITEM_IN_USE")
	expectCode(t, f.svc.Delete(ctx, item.ID), "ITEM_NOT_FOUND")
}

func TestPublicView(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	category := &models.Category{Name: "Packaging"}
	f.db.Create(category)
	item, err := f.svc.Create(ctx, CreateInput{Name: "Box", StockLevel: 1, SupplierID: f.supplier.ID, CategoryID: &category.ID}, f.user.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	view, err := f.svc.Public(ctx, item.ID)
	if err != nil {
		t.Fatalf("Public failed: %v", err)
	}
	if view.Name != "Box" || view.Category != "Packaging" || view.StockLevel != 1 {
		t.Errorf("Unexpected public view: %+v", view)
	}

	_, err = f.svc.Public(ctx, "missing")
	expectCode(t, err, "ITEM_NOT_FOUND")
}
