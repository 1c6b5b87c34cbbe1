package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Withdrawal status constants
const (
	WithdrawalStatusPending   = "PENDING"
	WithdrawalStatusCompleted = "COMPLETED"
	WithdrawalStatusRejected  = "REJECTED"
)

// Withdrawal represents a merchant payout request. The wallet balance is
// debited by the requested amount at creation time (the hold) and is
// credited back only if the request is rejected (the release).
type Withdrawal struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	WalletID        uint            `json:"wallet_id" gorm:"index"`
	Wallet          Wallet          `json:"-" gorm:"foreignKey:WalletID"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	PhoneNumber     string          `json:"phone_number"`
	Status          string          `json:"status" gorm:"index;default:'PENDING'"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}
