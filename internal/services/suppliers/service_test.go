package suppliers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

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

func TestCreateWithContactsAndCategories(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	category := models.Category{Name: "Packaging"}
	db.Create(&category)

	_, err := svc.Create(ctx, CreateInput{Name: "Boxes Inc", Categories: []string{"missing"}})
	expectCode(t, err, "CATEGORY_NOT_FOUND")

	supplier, err := svc.Create(ctx, CreateInput{
		Name:       "Boxes Inc",
		Email:      "hello@boxes.test",
		Categories: []string{category.ID},
		Contacts:   []ContactInput{{Name: "Dana", Email: "dana@boxes.test", IsPrimary: true}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if supplier.Status != models.SupplierActive || supplier.Currency != "USD" {
		t.Errorf("Expected ACTIVE USD supplier, got %s %s", supplier.Status, supplier.Currency)
	}
	if len(supplier.Contacts) != 1 || !supplier.Contacts[0].IsPrimary {
		t.Errorf("Expected one primary contact, got %+v", supplier.Contacts)
	}
	if len(supplier.Categories) != 1 || supplier.Categories[0].Name != "Packaging" {
		t.Errorf("Expected Packaging category, got %+v", supplier.Categories)
	}
}

func TestUpdateReplacesCategories(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	a := models.Category{Name: "A"}
	b := models.Category{Name: "B"}
	db.Create(&a)
	db.Create(&b)

	supplier, err := svc.Create(ctx, CreateInput{Name: "Vendor", Categories: []string{a.ID}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	risk := models.RiskHigh
	rating := 4.5
	updated, err := svc.Update(ctx, supplier.ID, UpdateInput{RiskLevel: &risk, Rating: &rating, Categories: []string{b.ID}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.RiskLevel != models.RiskHigh || updated.Rating != 4.5 {
		t.Errorf("Expected HIGH risk rated 4.5, got %s %v", updated.RiskLevel, updated.Rating)
	}
	if len(updated.Categories) != 1 || updated.Categories[0].ID != b.ID {
		t.Errorf("Expected categories replaced by B, got %+v", updated.Categories)
	}

	_, err = svc.Update(ctx, "missing", UpdateInput{RiskLevel: &risk})
	expectCode(t, err, "SUPPLIER_NOT_FOUND")
}

func TestListFilters(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	category := models.Category{Name: "Metal"}
	db.Create(&category)
	if _, err := svc.Create(ctx, CreateInput{Name: "Steelworks", Email: "steel@example.test", Categories: []string{category.ID}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Name: "Paper Mill", Email: "paper@example.test"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Name: "Alloy Partners", Email: "sales@steel-alloys.test"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	page, err := svc.List(ctx, ListFilter{Search: "steel"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 2 || page.Suppliers[0].Name != "Alloy Partners" {
		t.Errorf("Expected 2 steel suppliers by name, got %d", page.Total)
	}

	page, _ = svc.List(ctx, ListFilter{CategoryID: category.ID})
	if page.Total != 1 || page.Suppliers[0].Name != "Steelworks" {
		t.Errorf("Expected only Steelworks in Metal, got %d", page.Total)
	}

	page, _ = svc.List(ctx, ListFilter{Limit: 2, Page: 2})
	if page.Total != 3 || page.Pages != 2 || len(page.Suppliers) != 1 {
		t.Errorf("Expected last page with 1 of 3, got %d of %d", len(page.Suppliers), page.Total)
	}
}

func TestDocumentsCommunicationsQualifications(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	supplier, err := svc.Create(ctx, CreateInput{Name: "Vendor"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.AddDocument(ctx, supplier.ID, DocumentInput{Type: "CONTRACT", Name: "Frame contract", URL: "https://docs.test/c.pdf"}); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	_, err = svc.AddDocument(ctx, "missing", DocumentInput{Type: "CONTRACT", Name: "X", URL: "https://docs.test/x.pdf"})
	expectCode(t, err, "SUPPLIER_NOT_FOUND")

	comm, err := svc.AddCommunication(ctx, supplier.ID, CommunicationInput{
		Type: "EMAIL", Subject: "Quote", Content: "Please quote", Sender: "buyer@us.test", Recipient: "sales@vendor.test",
		Attachments: []string{"https://docs.test/rfq.pdf"},
	})
	if err != nil {
		t.Fatalf("AddCommunication failed: %v", err)
	}
	if len(comm.Attachments) != 1 {
		t.Errorf("Expected attachment to be kept")
	}

	validFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.UpsertQualification(ctx, supplier.ID, QualificationInput{Type: "ISO9001", Status: "PENDING", ValidFrom: validFrom}); err != nil {
		t.Fatalf("UpsertQualification failed: %v", err)
	}
	q, err := svc.UpsertQualification(ctx, supplier.ID, QualificationInput{Type: "ISO9001", Status: "APPROVED", ValidFrom: validFrom, Notes: "Audited"})
	if err != nil {
		t.Fatalf("UpsertQualification failed: %v", err)
	}
	if q.Status != "APPROVED" || q.Notes != "Audited" {
		t.Errorf("Expected qualification replaced, got %s %q", q.Status, q.Notes)
	}

	got, err := svc.Get(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Documents) != 1 || len(got.Communications) != 1 || len(got.Qualifications) != 1 {
		t.Errorf("Expected 1 document, communication and qualification, got %d %d %d",
			len(got.Documents), len(got.Communications), len(got.Qualifications))
	}
}

func TestUpsertQualificationReplacesByType(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	supplier, err := svc.Create(ctx, CreateInput{Name: "Pallets Ltd"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, err := svc.UpsertQualification(ctx, supplier.ID, QualificationInput{Type: "ISO14001", Status: "PENDING"})
	if err != nil {
		t.Fatalf("UpsertQualification failed: %v", err)
	}
	second, err := svc.UpsertQualification(ctx, supplier.ID, QualificationInput{Type: "ISO14001", Status: "APPROVED", Notes: "Renewed"})
	if err != nil {
		t.Fatalf("Replacing qualification failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected the existing row %s to be returned, got %s", first.ID, second.ID)
	}
	if second.Status != "APPROVED" || second.Notes != "Renewed" {
		t.Errorf("Expected APPROVED/Renewed, got %s %q", second.Status, second.Notes)
	}

	if _, err := svc.UpsertQualification(ctx, supplier.ID, QualificationInput{Type: "ISO9001", Status: "PENDING"}); err != nil {
		t.Fatalf("UpsertQualification failed: %v", err)
	}

	var stored []models.SupplierQualification
	db.Where("supplier_id = ?", supplier.ID).Order("type").Find(&stored)
	if len(stored) != 2 {
		t.Fatalf("Expected one row per type, got %d", len(stored))
	}
	if stored[0].Type != "ISO14001" || stored[0].Status != "APPROVED" {
		t.Errorf("Expected stored ISO14001 APPROVED, got %s %s", stored[0].Type, stored[0].Status)
	}
}

func TestMetrics(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := models.User{Email: "buyer@example.com", Password: "x", Role: models.RoleWorker1}
	db.Create(&user)
	supplier, err := svc.Create(ctx, CreateInput{Name: "Vendor"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pos := []models.PurchaseOrder{
		{SupplierID: supplier.ID, UserID: user.ID, Status: models.POReceived, TotalAmount: decimal.RequireFromString("100.50")},
		{SupplierID: supplier.ID, UserID: user.ID, Status: models.POReceived, TotalAmount: decimal.RequireFromString("50.25")},
		{SupplierID: supplier.ID, UserID: user.ID, Status: models.POPending, TotalAmount: decimal.NewFromInt(999)},
		{SupplierID: supplier.ID, UserID: user.ID, Status: models.POCancelled, TotalAmount: decimal.NewFromInt(10)},
	}
	for i := range pos {
		if err := db.Create(&pos[i]).Error; err != nil {
			t.Fatalf("creating purchase order: %v", err)
		}
	}
	rejected := models.GoodsReceipt{PurchaseOrderID: pos[0].ID, ReceivedByID: user.ID, Status: models.ReceiptRejected}
	db.Create(&rejected)

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{0, 2 * time.Hour, 5 * time.Hour} {
		c := models.SupplierCommunication{SupplierID: supplier.ID, Type: "EMAIL", Subject: "Thread", Content: "msg"}
		c.CreatedAt = start.Add(offset)
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("creating communication %d: %v", i, err)
		}
	}

	m, err := svc.Metrics(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if m.TotalOrders != 4 {
		t.Errorf("Expected 4 orders, got %d", m.TotalOrders)
	}
	if m.OnTimeDeliveryRate != 50 {
		t.Errorf("Expected 50%% delivery rate, got %v", m.OnTimeDeliveryRate)
	}
	if !m.TotalSpend.Equal(decimal.RequireFromString("150.75")) {
		t.Errorf("Expected spend 150.75, got %s", m.TotalSpend)
	}
	if m.QualityIssues != 1 || m.Returns != 1 {
		t.Errorf("Expected 1 quality issue and return, got %d %d", m.QualityIssues, m.Returns)
	}
	if m.AverageResponseTime != 2.5 {
		t.Errorf("Expected 2.5h response time, got %v", m.AverageResponseTime)
	}

	_, err = svc.Metrics(ctx, "missing")
	expectCode(t, err, "SUPPLIER_NOT_FOUND")
}
