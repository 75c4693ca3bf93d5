package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an authenticated principal.
// Owners have a nil OwnerID; staff members point at the owning account.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string         `gorm:"size:255" json:"name,omitempty"`
	OwnerID   *uint          `gorm:"index" json:"owner_id,omitempty"`
}

// TenantID returns the effective tenant: the owner for staff, the user itself otherwise.
func (u *User) TenantID() uint {
	if u.OwnerID != nil && *u.OwnerID != 0 {
		return *u.OwnerID
	}
	return u.ID
}

// Notification is a dashboard inbox entry for a tenant.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Kind      string    `gorm:"size:40;not null" json:"kind"` // sale_success, purchase_success, low_stock
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"size:1024" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	EventID   string    `gorm:"size:64;index" json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

