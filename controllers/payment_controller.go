package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/gateway"
	"github.com/sokopay/SokoPay/models"
	"github.com/sokopay/SokoPay/utils"
	"gorm.io/gorm"
)

// stkClient is the slice of the gateway client the initiate path needs.
type stkClient interface {
	Token(ctx context.Context) (string, error)
	STKPush(ctx context.Context, token string, amount decimal.Decimal, phone, accountRef, desc string) (*gateway.STKPushResult, error)
}

// newStkClient is swapped out by tests to avoid real gateway calls.
var newStkClient = func(creds gateway.Credentials) stkClient {
	return gateway.NewClient(creds)
}

type cartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// POST /payments/initiate
func InitiateStkPayment(c *gin.Context) {
	utils.LogInfo("InitiateStkPayment called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.LogError("User not found in context")
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)
	utils.LogInfo("Processing payment initiation for user ID: %d", user.ID)

	var req struct {
		Amount      decimal.Decimal   `json:"amount" binding:"required"`
		PhoneNumber string            `json:"phone_number" binding:"required"`
		Reference   string            `json:"reference"`
		Items       []cartItemRequest `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid request for user ID: %d: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. amount and phone_number are required", err.Error())
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		utils.BadRequest(c, "Amount must be positive", nil)
		return
	}

	// Resolve Daraja credentials: process defaults overridden field by
	// field with the merchant's business profile, if any.
	var profile *models.BusinessProfile
	var loaded models.BusinessProfile
	if err := config.DB.Where("user_id = ?", user.ID).First(&loaded).Error; err == nil {
		profile = &loaded
	}
	creds := gateway.ResolveCredentials(gateway.CredentialsFromConfig(config.App.Mpesa), profile)
	if err := creds.Validate(); err != nil {
		appErr := utils.NewAppError(http.StatusInternalServerError, "Payment gateway is not configured", err)
		utils.LogError("Incomplete gateway credentials for user ID: %d: %v", user.ID, err)
		utils.Error(c, appErr.Code, appErr.Message, appErr.Error())
		return
	}

	wallet, err := getOrCreateWallet(user.ID)
	if err != nil {
		utils.LogError("Failed to get wallet for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get wallet", err.Error())
		return
	}

	accountRef := req.Reference
	if accountRef == "" {
		accountRef = fmt.Sprintf("SOKO-%s", uuid.New().String()[:8])
	}

	client := newStkClient(creds)
	token, err := client.Token(c.Request.Context())
	if err != nil {
		utils.LogError("Gateway auth failed for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to authenticate with payment gateway", err.Error())
		return
	}

	push, err := client.STKPush(c.Request.Context(), token, req.Amount, req.PhoneNumber, accountRef, "SokoPay sale")
	if err != nil {
		// The push never reached the customer; no ledger commitment is
		// created for a failed submission.
		utils.LogError("STK push failed for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to initiate payment", err.Error())
		return
	}
	utils.LogInfo("STK push accepted for user ID: %d - MerchantRequestID: %s", user.ID, push.MerchantRequestID)

	transaction, err := openPaymentIntent(user, wallet, req.Amount, req.PhoneNumber, accountRef, push, req.Items)
	if err != nil {
		utils.LogError("Failed to record payment intent for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to record payment", err.Error())
		return
	}
	utils.LogInfo("Created pending transaction ID: %d for user ID: %d", transaction.ID, user.ID)

	utils.Success(c, "Payment initiated. Ask the customer to approve the prompt on their phone.", gin.H{
		"transaction_id":      transaction.ID,
		"merchant_request_id": push.MerchantRequestID,
		"checkout_request_id": push.CheckoutRequestID,
		"amount":              req.Amount.StringFixed(2),
		"reference":           accountRef,
		"status":              transaction.Status,
	})
}

// openPaymentIntent records the pending transaction issued by an
// accepted STK push, together with the optional sale and its stock
// decrement, in a single database transaction.
func openPaymentIntent(user models.User, wallet *models.Wallet, amount decimal.Decimal, phone, reference string, push *gateway.STKPushResult, items []cartItemRequest) (*models.Transaction, error) {
	var transaction models.Transaction

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		transaction = models.Transaction{
			UserID:            user.ID,
			WalletID:          wallet.ID,
			Type:              models.TransactionTypeStkPush,
			Amount:            amount,
			Reference:         reference,
			PhoneNumber:       gateway.NormalizePhone(phone),
			MerchantRequestID: push.MerchantRequestID,
			CheckoutRequestID: push.CheckoutRequestID,
			Status:            models.TransactionStatusPending,
			Metadata:          push.RawResponse,
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}

		if len(items) == 0 {
			return nil
		}

		sale := models.Sale{
			UserID:        user.ID,
			TransactionID: transaction.ID,
			Total:         decimal.Zero,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range items {
			var product models.Product
			if err := tx.First(&product, item.ProductID).Error; err != nil {
				return fmt.Errorf("product %d: %w", item.ProductID, err)
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			saleItem := models.SaleItem{
				SaleID:    sale.ID,
				ProductID: product.ID,
				Quantity:  item.Quantity,
				Price:     product.Price,
				Total:     lineTotal,
			}
			if err := tx.Create(&saleItem).Error; err != nil {
				return err
			}
			total = total.Add(lineTotal)

			// The customer has already paid by the time we get here, so
			// a stock shortfall clamps to zero instead of failing the
			// settlement. Stricter deployments may want to reject.
			if product.Stock < item.Quantity {
				utils.LogError("Stock shortfall for product ID: %d - have %d, sold %d", product.ID, product.Stock, item.Quantity)
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ?", product.ID).
				UpdateColumn("stock", gorm.Expr("CASE WHEN stock >= ? THEN stock - ? ELSE 0 END", item.Quantity, item.Quantity)).Error; err != nil {
				return err
			}
		}

		return tx.Model(&sale).UpdateColumn("total", total).Error
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// findTransactionByMerchantRequestID is the correlation lookup used by
// the settlement path.
func findTransactionByMerchantRequestID(merchantRequestID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := config.DB.Where("merchant_request_id = ?", merchantRequestID).First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}
