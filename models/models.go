package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a merchant account in the system
type User struct {
	gorm.Model
	Username    string    `gorm:"uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `json:"-"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	IsBlocked   bool      `json:"is_blocked"`
	IsVerified  bool      `json:"is_verified" gorm:"default:false"`
	IsAdmin     bool      `json:"is_admin" gorm:"default:false"`
	LastLoginAt time.Time `json:"last_login_at"`
	Wallet      Wallet    `json:"wallet,omitempty" gorm:"foreignKey:UserID"`

	BusinessProfile *BusinessProfile `json:"business_profile,omitempty" gorm:"foreignKey:UserID"`
}

// Admin represents an administrator in the system
type Admin struct {
	gorm.Model
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	LastLogin time.Time `json:"last_login"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
}

// BusinessProfile carries a merchant's business details, including
// optional per-merchant Daraja credential overrides. Empty override
// fields fall back to the process-wide defaults at push time.
type BusinessProfile struct {
	gorm.Model
	UserID       uint   `json:"user_id" gorm:"uniqueIndex"`
	BusinessName string `json:"business_name"`
	Location     string `json:"location"`

	MpesaConsumerKey    string `json:"-"`
	MpesaConsumerSecret string `json:"-"`
	MpesaPasskey        string `json:"-"`
	MpesaShortcode      string `json:"mpesa_shortcode"`
	MpesaInitiatorName  string `json:"-"`
	MpesaInitiatorPass  string `json:"-"`
	MpesaCallbackURL    string `json:"mpesa_callback_url"`
	MpesaEnv            string `json:"mpesa_env"` // sandbox, production
}

// Product represents an item a merchant sells through the POS
type Product struct {
	gorm.Model
	UserID      uint            `json:"user_id" gorm:"index"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active" gorm:"default:true"`
}
