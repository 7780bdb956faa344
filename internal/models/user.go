package models

import "time"

// Role is the access level of a user
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleWorker1 Role = "WORKER1" // inventory, catalogs, suppliers, goods receipts
	RoleWorker2 Role = "WORKER2" // orders and requests
	RoleUser    Role = "USER"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleWorker1, RoleWorker2, RoleUser:
		return true
	}
	return false
}

// User represents an account that can sign in to the system
type User struct {
	Base
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	Name      string     `json:"name"`
	Role      Role       `gorm:"type:varchar(16);not null;default:'USER'" json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// UserRef is the public projection of a user embedded in other payloads
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
