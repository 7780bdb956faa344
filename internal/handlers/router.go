package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"

	"github.com/xelth-com/stockflow/internal/buildinfo"
	"github.com/xelth-com/stockflow/internal/config"
	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/events"
	"github.com/xelth-com/stockflow/internal/middleware"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/catalog"
	"github.com/xelth-com/stockflow/internal/services/inventory"
	"github.com/xelth-com/stockflow/internal/services/orders"
	"github.com/xelth-com/stockflow/internal/services/purchasing"
	"github.com/xelth-com/stockflow/internal/services/qrcodes"
	"github.com/xelth-com/stockflow/internal/services/requests"
	"github.com/xelth-com/stockflow/internal/services/stock"
	"github.com/xelth-com/stockflow/internal/services/suppliers"
	"github.com/xelth-com/stockflow/internal/services/users"
	"github.com/xelth-com/stockflow/internal/websocket"
)

// Services bundles the domain services the handlers call
type Services struct {
	Users      *users.Service
	Inventory  *inventory.Service
	Stock      *stock.Service
	Orders     *orders.Service
	Purchasing *purchasing.Service
	Catalog    *catalog.Service
	Suppliers  *suppliers.Service
	QRCodes    *qrcodes.Service
	Requests   *requests.Service
}

// NewServices wires every service to db. Stock changes go to publisher.
func NewServices(db *database.DB, cfg *config.Config, publisher events.Publisher) Services {
	return Services{
		Users:      users.NewService(db, cfg),
		Inventory:  inventory.NewService(db, publisher),
		Stock:      stock.NewService(db, publisher),
		Orders:     orders.NewService(db, publisher),
		Purchasing: purchasing.NewService(db, publisher),
		Catalog:    catalog.NewService(db),
		Suppliers:  suppliers.NewService(db),
		QRCodes:    qrcodes.NewService(db, cfg.AppURL),
		Requests:   requests.NewService(db),
	}
}

// Router wraps the mux router and the services behind it
type Router struct {
	*mux.Router
	cfg     *config.Config
	svc     Services
	hub     *websocket.Hub
	gate    *middleware.Gate
	limiter *middleware.RateLimiter
	err     error
}

// access describes who may call a route
type access struct {
	public bool
	roles  []models.Role
}

var (
	public     = access{public: true}
	anySession = access{}
)

func only(roles ...models.Role) access {
	return access{roles: roles}
}

const (
	admin   = models.RoleAdmin
	worker1 = models.RoleWorker1
	worker2 = models.RoleWorker2
)

// NewRouter creates a new HTTP router with all routes. store backs the
// rate limiter.
func NewRouter(cfg *config.Config, svc Services, hub *websocket.Hub, store limiter.Store) (*Router, error) {
	r := &Router{
		Router:  mux.NewRouter(),
		cfg:     cfg,
		svc:     svc,
		hub:     hub,
		gate:    middleware.NewGate(cfg.JWTSecret),
		limiter: middleware.NewRateLimiter(store, cfg.RateLimit.TrustProxy),
	}
	r.Use(middleware.AccessLog)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, notFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, methodNotAllowed)
	})

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth
	r.handle("POST", "/api/auth/login", public, r.login)
	r.handle("POST", "/api/auth/register", public, r.register)
	r.handle("POST", "/api/auth/refresh", public, r.refresh)

	// Users
	r.handle("GET", "/api/users", only(admin), r.listUsers)
	r.handle("PUT", "/api/users/{id}", only(admin), r.setUserRole)

	// Items and stock
	r.handle("GET", "/api/items", anySession, r.listItems)
	r.handle("POST", "/api/items", only(admin, worker1), r.createItem)
	r.handle("GET", "/api/items/{id}", only(admin, worker1), r.getItem)
	r.handle("PUT", "/api/items/{id}", only(admin, worker1), r.updateItem)
	r.handle("DELETE", "/api/items/{id}", only(admin), r.deleteItem)
	r.handle("POST", "/api/items/{id}/adjustments", only(admin, worker1), r.adjustStock)
	r.handle("GET", "/api/items/{id}/stock-history", only(admin, worker1), r.stockHistory)
	r.handle("GET", "/api/public/items/{id}", public, r.publicItem)

	// QR codes
	r.handle("GET", "/api/items/{id}/qr-code", only(admin, worker1), r.listItemQRCodes)
	r.handle("POST", "/api/items/{id}/qr-code", only(admin, worker1), r.createQRCode)
	r.handle("DELETE", "/api/items/{id}/qr-code", only(admin), r.deleteQRCode)
	r.handle("GET", "/api/items/{id}/qr-code/labels", only(admin, worker1), r.printLabels)
	r.handle("GET", "/api/qr-codes", only(admin), r.listQRCodes)
	r.handle("GET", "/api/qr-codes/{id}/image", only(admin, worker1), r.qrCodeImage)

	// Orders
	r.handleRate("GET", "/api/orders", cfg.RateLimit.OrdersRead, only(admin, worker2), r.listOrders)
	r.handleRate("POST", "/api/orders", cfg.RateLimit.OrdersWrite, only(admin, worker2), r.createOrder)
	r.handleRate("GET", "/api/orders/analytics", cfg.RateLimit.OrdersRead, only(admin, worker2), r.orderAnalytics)
	r.handleRate("GET", "/api/orders/{id}", cfg.RateLimit.OrdersRead, only(admin, worker2), r.getOrder)
	r.handle("PUT", "/api/orders/{id}", only(admin, worker2), r.updateOrder)
	r.handle("DELETE", "/api/orders/{id}", only(admin, worker2), r.deleteOrder)

	// Purchasing
	r.handle("GET", "/api/purchase-orders", only(admin, worker1), r.listPurchaseOrders)
	r.handle("POST", "/api/purchase-orders", only(admin, worker1), r.createPurchaseOrder)
	r.handle("GET", "/api/purchase-orders/{id}", only(admin, worker1), r.getPurchaseOrder)
	r.handle("PUT", "/api/purchase-orders/{id}", only(admin, worker1), r.updatePurchaseOrder)
	r.handle("GET", "/api/goods-receipts", only(admin, worker1), r.listGoodsReceipts)
	r.handle("POST", "/api/goods-receipts", only(admin, worker1), r.createGoodsReceipt)
	r.handle("GET", "/api/goods-receipts/{id}", only(admin, worker1), r.getGoodsReceipt)
	r.handle("PUT", "/api/goods-receipts/{id}", only(admin, worker1), r.updateGoodsReceipt)
	r.handle("DELETE", "/api/goods-receipts/{id}", only(admin), r.deleteGoodsReceipt)

	// Suppliers
	r.handle("GET", "/api/suppliers", only(admin, worker1), r.listSuppliers)
	r.handle("POST", "/api/suppliers", only(admin), r.createSupplier)
	r.handle("GET", "/api/suppliers/{id}", only(admin, worker1), r.getSupplier)
	r.handle("PUT", "/api/suppliers/{id}", only(admin), r.updateSupplier)
	r.handle("POST", "/api/suppliers/{id}/documents", only(admin), r.addSupplierDocument)
	r.handle("POST", "/api/suppliers/{id}/communications", only(admin, worker1), r.addSupplierCommunication)
	r.handle("PUT", "/api/suppliers/{id}/qualifications", only(admin), r.upsertSupplierQualification)
	r.handle("GET", "/api/suppliers/{id}/metrics", anySession, r.supplierMetrics)

	// Categories and item catalogs
	r.handle("GET", "/api/categories", only(admin, worker1), r.listCategories)
	r.handle("POST", "/api/categories", only(admin), r.createCategory)
	r.handle("PUT", "/api/categories/{id}", only(admin), r.updateCategory)
	r.handle("DELETE", "/api/categories/{id}", only(admin), r.deleteCategory)
	r.handle("GET", "/api/item-catalogs", anySession, r.listItemCatalogs)
	r.handle("POST", "/api/item-catalogs", only(admin, worker1), r.createItemCatalog)
	r.handle("GET", "/api/item-catalogs/{id}", anySession, r.getItemCatalog)
	r.handle("PUT", "/api/item-catalogs/{id}", only(admin, worker1), r.updateItemCatalog)
	r.handle("DELETE", "/api/item-catalogs/{id}", only(admin), r.deleteItemCatalog)
	r.handle("GET", "/api/item-catalogs/{id}/suppliers", anySession, r.itemCatalogSuppliers)

	// Requests
	r.handle("GET", "/api/requests", only(admin, worker2), r.listRequests)
	r.handle("POST", "/api/requests", anySession, r.createRequest)
	r.handle("PUT", "/api/requests/{id}", only(admin, worker2), r.updateRequest)

	// Live stock events
	r.Handle("/ws/stock", r.gate.RequireRoles(admin, worker1, worker2)(http.HandlerFunc(r.stockSocket))).Methods("GET")

	if r.err != nil {
		return nil, r.err
	}
	return r, nil
}

func (r *Router) handle(method, path string, a access, h http.HandlerFunc) {
	r.handleRate(method, path, r.cfg.RateLimit.Default, a, h)
}

// handleRate registers h behind the rate limiter and then the access gate
func (r *Router) handleRate(method, path, rate string, a access, h http.HandlerFunc) {
	if r.err != nil {
		return
	}
	limit, err := r.limiter.Limit(method+" "+path, rate)
	if err != nil {
		r.err = err
		return
	}

	var handler http.Handler = h
	if !a.public {
		handler = r.gate.RequireRoles(a.roles...)(handler)
	}
	r.Handle(path, limit(handler)).Methods(method)
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"build":       buildinfo.Current(),
		"subscribers": r.hub.ClientCount(),
	})
}

// session returns the caller placed in the context by the access gate
func session(req *http.Request) *middleware.Session {
	s, _ := middleware.SessionFrom(req.Context())
	if s == nil {
		return &middleware.Session{}
	}
	return s
}

func pathID(req *http.Request) string {
	return mux.Vars(req)["id"]
}
