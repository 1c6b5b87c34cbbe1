package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is the cart-of-goods record created alongside a Transaction when
// a push payment pays for a basket of products. Used for receipt
// reconstruction and the daily sales digest.
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `json:"user_id" gorm:"index"`
	TransactionID uint            `json:"transaction_id" gorm:"index"`
	Total         decimal.Decimal `json:"total" gorm:"type:numeric(12,2)"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []SaleItem      `json:"items" gorm:"foreignKey:SaleID"`
}

type SaleItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `json:"sale_id"`
	ProductID uint            `json:"product_id"`
	Product   Product         `json:"product" gorm:"foreignKey:ProductID"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Total     decimal.Decimal `json:"total" gorm:"type:numeric(12,2)"`
}
