package models

// RequestType distinguishes checkout from return requests
type RequestType string

const (
	RequestCheckout RequestType = "checkout"
	RequestReturn   RequestType = "return"
)

// RequestStatus is the processing state of a request
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestApproved  RequestStatus = "APPROVED"
	RequestDenied    RequestStatus = "DENIED"
	RequestCompleted RequestStatus = "COMPLETED"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:  {RequestApproved, RequestDenied},
	RequestApproved: {RequestCompleted},
}

// CanTransitionTo reports whether a request may move from s to next
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Request is a user's ask to check out or return an item
type Request struct {
	Base
	Type     RequestType   `gorm:"type:varchar(16);not null" json:"type"`
	Status   RequestStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	ItemID   string        `gorm:"type:varchar(36);not null;index" json:"itemId"`
	UserID   string        `gorm:"type:varchar(36);not null;index" json:"userId"`
	Quantity int           `gorm:"not null;default:1" json:"quantity"`
	Notes    string        `json:"notes,omitempty"`

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for Request model
func (Request) TableName() string {
	return "requests"
}
