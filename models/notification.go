package models

import (
	"time"
)

// Notification kind constants
const (
	NotificationKindSuccess = "success"
	NotificationKindError   = "error"
	NotificationKindInfo    = "info"
)

// Notification is a best-effort in-app message for a user. Rows here are
// side effects of settlement and withdrawal outcomes and are never
// required for ledger correctness.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind" gorm:"default:'info'"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
