package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet represents a merchant's settlement wallet. The balance is only
// ever mutated through atomic column updates inside a transaction, never
// read-modify-write in application code.
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `json:"user_id" gorm:"uniqueIndex"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:numeric(12,2);default:0"`
	Currency  string          `json:"currency" gorm:"default:'KES'"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// WalletEntry represents a single credit or debit applied to a wallet.
// One row is written alongside every balance mutation.
type WalletEntry struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	WalletID      uint            `json:"wallet_id" gorm:"index"`
	Wallet        Wallet          `json:"-" gorm:"foreignKey:WalletID"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	Type          string          `json:"type"` // credit, debit
	Description   string          `json:"description"`
	TransactionID *uint           `json:"transaction_id"`
	WithdrawalID  *uint           `json:"withdrawal_id"`
	Reference     string          `json:"reference"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// WalletEntry type constants
const (
	EntryTypeCredit = "credit"
	EntryTypeDebit  = "debit"
)
