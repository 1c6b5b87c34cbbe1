package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction status constants. The transition out of PENDING is one-way
// and happens at most once per transaction.
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
)

// Transaction type constants
const (
	TransactionTypeStkPush = "MPESA_STK"
)

// Transaction represents a single outbound push-payment attempt pending
// gateway confirmation. The MerchantRequestID/CheckoutRequestID pair is
// issued by Daraja at push time and correlates the later asynchronous
// callback with this row. Reference starts as a local placeholder and is
// overwritten with the M-Pesa receipt number on successful settlement.
type Transaction struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `json:"user_id" gorm:"index"`
	User              User            `json:"-" gorm:"foreignKey:UserID"`
	WalletID          uint            `json:"wallet_id" gorm:"index"`
	Wallet            Wallet          `json:"-" gorm:"foreignKey:WalletID"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	FeeCharged        decimal.Decimal `json:"fee_charged" gorm:"type:numeric(12,2);default:0"`
	Reference         string          `json:"reference"`
	PhoneNumber       string          `json:"phone_number"`
	MerchantRequestID string          `json:"merchant_request_id" gorm:"uniqueIndex"`
	CheckoutRequestID string          `json:"checkout_request_id" gorm:"uniqueIndex"`
	Status            string          `json:"status" gorm:"index;default:'PENDING'"`
	ResultDesc        string          `json:"result_desc"`
	// Metadata holds the serialized raw gateway response for audit and
	// display. It is never parsed for business decisions.
	Metadata  string         `json:"metadata"`
	Sale      *Sale          `json:"sale,omitempty" gorm:"foreignKey:TransactionID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
