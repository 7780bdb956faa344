package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xelth-com/stockflow/internal/config"
	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/middleware"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/users"
	"github.com/xelth-com/stockflow/internal/websocket"
)

const testJWTSecret = "test-secret"

type testServer struct {
	*httptest.Server
	db     *database.DB
	svc    Services
	tokens map[models.Role]string
	ids    map[models.Role]string
}

func setupTestServer(t *testing.T, tweak func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.JWTSecret = testJWTSecret
	if tweak != nil {
		tweak(cfg)
	}

	db := database.NewTestDB(t)
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	svc := NewServices(db, cfg, hub)
	router, err := NewRouter(cfg, svc, hub, middleware.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ts := &testServer{Server: server, db: db, svc: svc, tokens: map[models.Role]string{}, ids: map[models.Role]string{}}
	for _, role := range []models.Role{models.RoleAdmin, models.RoleWorker1, models.RoleWorker2, models.RoleUser} {
		email := string(role) + "@example.com"
		user, err := svc.Users.Register(context.Background(), users.RegisterInput{
			Email: email, Password: "password1", Name: "Test " + string(role), Role: role,
		}, models.RoleAdmin)
		if err != nil {
			t.Fatalf("registering %s: %v", role, err)
		}
		ts.ids[role] = user.ID

		resp := ts.do(t, "POST", "/api/auth/login", "", map[string]string{"email": email, "password": "password1"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("login failed for %s: %d", role, resp.StatusCode)
		}
		var session users.Session
		json.NewDecoder(resp.Body).Decode(&session)
		resp.Body.Close()
		ts.tokens[role] = session.Tokens.AccessToken
	}
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// call performs a request and decodes the JSON response into out
func (ts *testServer) call(t *testing.T, method, path string, role models.Role, body, out any) int {
	t.Helper()
	resp := ts.do(t, method, path, ts.tokens[role], body)
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func (ts *testServer) seedItem(t *testing.T, level, minimum int) *models.Item {
	t.Helper()
	supplier := &models.Supplier{Name: "Acme", Status: models.SupplierActive}
	if err := ts.db.Create(supplier).Error; err != nil {
		t.Fatalf("creating supplier: %v", err)
	}
	var item models.Item
	status := ts.call(t, "POST", "/api/items", models.RoleWorker1, map[string]any{
		"name": "Pallet wrap", "stockLevel": level, "minimumStockLevel": minimum, "supplierId": supplier.ID,
	}, &item)
	if status != http.StatusCreated {
		t.Fatalf("creating item: %d", status)
	}
	return &item
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t, nil)
	resp := ts.do(t, "GET", "/health", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAccessGate(t *testing.T) {
	ts := setupTestServer(t, nil)
	item := ts.seedItem(t, 5, 1)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		code   string
	}{
		{"no session", "GET", "/api/items/" + item.ID, "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"worker2 on inventory", "GET", "/api/items/" + item.ID, ts.tokens[models.RoleWorker2], http.StatusForbidden, "FORBIDDEN"},
		{"worker1 on orders", "GET", "/api/orders", ts.tokens[models.RoleWorker1], http.StatusForbidden, "FORBIDDEN"},
		{"worker1 deletes item", "DELETE", "/api/items/" + item.ID, ts.tokens[models.RoleWorker1], http.StatusForbidden, "FORBIDDEN"},
		{"user lists items", "GET", "/api/items", ts.tokens[models.RoleUser], http.StatusOK, ""},
		{"worker1 reads item", "GET", "/api/items/" + item.ID, ts.tokens[models.RoleWorker1], http.StatusOK, ""},
		{"public lookup", "GET", "/api/public/items/" + item.ID, "", http.StatusOK, ""},
		{"user lists users", "GET", "/api/users", ts.tokens[models.RoleUser], http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, tt.method, tt.path, tt.token, nil)
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if tt.code == "" {
				return
			}
			var body map[string]any
			json.NewDecoder(resp.Body).Decode(&body)
			if body["code"] != tt.code {
				t.Errorf("expected code %s, got %v", tt.code, body["code"])
			}
			if _, leaked := body["name"]; leaked {
				t.Errorf("item data returned on a denied request")
			}
		})
	}
}

func TestOrderEndpoints(t *testing.T) {
	ts := setupTestServer(t, nil)
	item := ts.seedItem(t, 5, 3)
	customer := ts.ids[models.RoleUser]

	var failure map[string]string
	status := ts.call(t, "POST", "/api/orders", models.RoleWorker2, map[string]any{
		"userId": customer, "items": []map[string]any{{"id": item.ID, "quantity": 10}},
	}, &failure)
	if status != http.StatusBadRequest || failure["code"] != "INSUFFICIENT_STOCK" {
		t.Fatalf("expected 400 INSUFFICIENT_STOCK, got %d %v", status, failure)
	}

	var order models.Order
	status = ts.call(t, "POST", "/api/orders", models.RoleWorker2, map[string]any{
		"userId": customer, "items": []map[string]any{{"id": item.ID, "quantity": 2}},
	}, &order)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if order.Status != models.OrderPending || len(order.Lines) != 1 {
		t.Errorf("unexpected order: %+v", order)
	}

	var after models.Item
	ts.call(t, "GET", "/api/items/"+item.ID, models.RoleWorker1, nil, &after)
	if after.StockLevel != 3 || after.Status != models.ItemLowStock {
		t.Errorf("expected 3 LOW_STOCK, got %d %s", after.StockLevel, after.Status)
	}

	var history []models.StockHistory
	ts.call(t, "GET", "/api/items/"+item.ID+"/stock-history", models.RoleAdmin, nil, &history)
	if len(history) != 2 {
		t.Fatalf("expected initial and sale entries, got %d", len(history))
	}
	var sale *models.StockHistory
	for i := range history {
		if history[i].Reason == models.ReasonSale {
			sale = &history[i]
		}
	}
	if sale == nil || sale.OldLevel != 5 || sale.NewLevel != 3 {
		t.Errorf("expected SALE 5->3, got %+v", history)
	}

	status = ts.call(t, "PUT", "/api/orders/"+order.ID, models.RoleWorker2, map[string]string{"status": "COMPLETED"}, &failure)
	if status != http.StatusBadRequest || failure["code"] != "INVALID_STATUS_TRANSITION" {
		t.Errorf("expected INVALID_STATUS_TRANSITION, got %d %v", status, failure)
	}
	var approved models.Order
	status = ts.call(t, "PUT", "/api/orders/"+order.ID, models.RoleWorker2, map[string]string{"status": "APPROVED"}, &approved)
	if status != http.StatusOK || approved.Status != models.OrderApproved {
		t.Errorf("expected APPROVED, got %d %s", status, approved.Status)
	}

	var analytics map[string]any
	if status := ts.call(t, "GET", "/api/orders/analytics", models.RoleAdmin, nil, &analytics); status != http.StatusOK {
		t.Errorf("analytics: expected 200, got %d", status)
	}
}

func TestGoodsReceiptEndpoints(t *testing.T) {
	ts := setupTestServer(t, nil)
	item := ts.seedItem(t, 2, 3)

	var po models.PurchaseOrder
	status := ts.call(t, "POST", "/api/purchase-orders", models.RoleWorker1, map[string]any{
		"supplierId": *item.SupplierID,
		"items":      []map[string]any{{"itemId": item.ID, "quantity": 4, "unitPrice": "2.50"}},
	}, &po)
	if status != http.StatusCreated {
		t.Fatalf("creating purchase order: %d", status)
	}
	if po.TotalAmount.String() != "10" {
		t.Errorf("expected total 10, got %s", po.TotalAmount)
	}

	var receipt models.GoodsReceipt
	status = ts.call(t, "POST", "/api/goods-receipts", models.RoleWorker1, map[string]any{
		"purchaseOrderId": po.ID,
		"items":           []map[string]any{{"itemId": item.ID, "quantity": 4}},
	}, &receipt)
	if status != http.StatusCreated {
		t.Fatalf("creating receipt: %d", status)
	}

	status = ts.call(t, "PUT", "/api/goods-receipts/"+receipt.ID, models.RoleWorker1, map[string]string{"status": "COMPLETED"}, &receipt)
	if status != http.StatusOK || receipt.Status != models.ReceiptCompleted {
		t.Fatalf("completing receipt: %d %s", status, receipt.Status)
	}

	var after models.Item
	ts.call(t, "GET", "/api/items/"+item.ID, models.RoleWorker1, nil, &after)
	if after.StockLevel != 6 || after.Status != models.ItemAvailable {
		t.Errorf("expected 6 AVAILABLE, got %d %s", after.StockLevel, after.Status)
	}

	var failure map[string]string
	status = ts.call(t, "PUT", "/api/goods-receipts/"+receipt.ID, models.RoleWorker1, map[string]string{"status": "REJECTED"}, &failure)
	if status != http.StatusBadRequest || failure["code"] != "INVALID_STATUS_UPDATE" {
		t.Errorf("expected INVALID_STATUS_UPDATE, got %d %v", status, failure)
	}
}

func TestValidationMessages(t *testing.T) {
	ts := setupTestServer(t, nil)

	var failure map[string]string
	status := ts.call(t, "POST", "/api/items", models.RoleAdmin, map[string]any{"stockLevel": 1, "supplierId": "x"}, &failure)
	if status != http.StatusBadRequest || failure["code"] != "VALIDATION_ERROR" || failure["error"] != "name is required" {
		t.Errorf("unexpected validation response %d %v", status, failure)
	}

	status = ts.call(t, "POST", "/api/auth/register", "", map[string]string{"email": "new@example.com", "password": "short", "name": "New"}, &failure)
	if status != http.StatusBadRequest || failure["error"] != "password must be at least 8 characters" {
		t.Errorf("unexpected register response %d %v", status, failure)
	}
}

func TestPublicRegistrationIsUser(t *testing.T) {
	ts := setupTestServer(t, nil)

	var out struct {
		User models.User `json:"user"`
	}
	status := ts.call(t, "POST", "/api/auth/register", "", map[string]string{
		"email": "eve@example.com", "password": "password1", "name": "Eve", "role": "ADMIN",
	}, &out)
	if status != http.StatusCreated || out.User.Role != models.RoleUser {
		t.Errorf("expected USER account, got %d %s", status, out.User.Role)
	}

	status = ts.call(t, "POST", "/api/auth/register", models.RoleAdmin, map[string]string{
		"email": "ops@example.com", "password": "password1", "name": "Ops", "role": "WORKER1",
	}, &out)
	if status != http.StatusCreated || out.User.Role != models.RoleWorker1 {
		t.Errorf("expected WORKER1 account, got %d %s", status, out.User.Role)
	}
}

func TestOrderRateLimit(t *testing.T) {
	ts := setupTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.OrdersRead = "2-M"
	})

	for i := 0; i < 2; i++ {
		if status := ts.call(t, "GET", "/api/orders", models.RoleAdmin, nil, nil); status != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, status)
		}
	}

	var failure map[string]string
	status := ts.call(t, "GET", "/api/orders", models.RoleAdmin, nil, &failure)
	if status != http.StatusTooManyRequests || failure["code"] != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("expected 429 RATE_LIMIT_EXCEEDED, got %d %v", status, failure)
	}

	// The limiter runs ahead of the gate
	resp := ts.do(t, "GET", "/api/orders", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected anonymous request to be limited too, got %d", resp.StatusCode)
	}

	if status := ts.call(t, "GET", "/api/items", models.RoleAdmin, nil, nil); status != http.StatusOK {
		t.Errorf("other routes keep their own window, got %d", status)
	}
}
