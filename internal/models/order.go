package models

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderApproved  OrderStatus = "APPROVED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderDenied    OrderStatus = "DENIED"
)

// orderTransitions lists the statuses reachable from each non-terminal status
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:  {OrderApproved, OrderDenied, OrderCancelled},
	OrderApproved: {OrderCompleted, OrderDenied, OrderCancelled},
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderApproved, OrderCompleted, OrderCancelled, OrderDenied:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether an order may move from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a request to take items out of stock
type Order struct {
	Base
	UserID string      `gorm:"type:varchar(36);not null;index" json:"userId"`
	Status OrderStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`

	// Relations
	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Lines []OrderLine `gorm:"foreignKey:OrderID" json:"items"`
}

// TableName specifies the table name for Order model
func (Order) TableName() string {
	return "orders"
}

// OrderLine links an order to one item and the quantity taken
type OrderLine struct {
	Base
	OrderID  string `gorm:"type:varchar(36);not null;index" json:"orderId"`
	ItemID   string `gorm:"type:varchar(36);not null;index" json:"itemId"`
	Quantity int    `gorm:"not null" json:"quantity"`

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// TableName specifies the table name for OrderLine model
func (OrderLine) TableName() string {
	return "order_items"
}
