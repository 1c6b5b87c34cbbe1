package controllers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/gateway"
	"github.com/sokopay/SokoPay/models"
)

// fakeStkClient satisfies stkClient and records what the handler sent.
type fakeStkClient struct {
	creds      gateway.Credentials
	tokenErr   error
	pushErr    error
	pushAmount decimal.Decimal
	pushPhone  string
	pushRef    string
}

func (f *fakeStkClient) Token(ctx context.Context) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "test-token", nil
}

func (f *fakeStkClient) STKPush(ctx context.Context, token string, amount decimal.Decimal, phone, accountRef, desc string) (*gateway.STKPushResult, error) {
	f.pushAmount = amount
	f.pushPhone = phone
	f.pushRef = accountRef
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	return &gateway.STKPushResult{
		MerchantRequestID: "29115-34620561-1",
		CheckoutRequestID: "ws_CO_191220191020363925",
		RawResponse:       `{"ResponseCode":"0"}`,
	}, nil
}

// stubGateway installs a fake client factory for the duration of a test.
func stubGateway(t *testing.T, fake *fakeStkClient) {
	t.Helper()
	original := newStkClient
	newStkClient = func(creds gateway.Credentials) stkClient {
		fake.creds = creds
		return fake
	}
	t.Cleanup(func() { newStkClient = original })
}

func paymentRouter(user models.User) *gin.Engine {
	router := gin.New()
	router.POST("/v1/payments/initiate", asUser(user), InitiateStkPayment)
	return router
}

func TestInitiatePaymentCreatesPendingTransaction(t *testing.T) {
	setupTest(t)
	user, wallet := createTestUser(t, "0")
	fake := &fakeStkClient{}
	stubGateway(t, fake)

	w := doJSON(t, paymentRouter(user), http.MethodPost, "/v1/payments/initiate", gin.H{
		"amount":       "500",
		"phone_number": "0712345678",
		"reference":    "ORDER-42",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "29115-34620561-1")

	var transaction models.Transaction
	require.NoError(t, config.DB.Where("merchant_request_id = ?", "29115-34620561-1").First(&transaction).Error)
	assert.Equal(t, models.TransactionStatusPending, transaction.Status)
	assert.Equal(t, user.ID, transaction.UserID)
	assert.Equal(t, wallet.ID, transaction.WalletID)
	assert.Equal(t, "500.00", transaction.Amount.StringFixed(2))
	assert.Equal(t, "254712345678", transaction.PhoneNumber)
	assert.Equal(t, "ORDER-42", transaction.Reference)
	assert.Equal(t, "ws_CO_191220191020363925", transaction.CheckoutRequestID)
	assert.Contains(t, transaction.Metadata, "ResponseCode")

	// Nothing is credited until the callback arrives.
	assert.Equal(t, "0.00", walletBalance(t, wallet.ID).StringFixed(2))

	assert.Equal(t, "ORDER-42", fake.pushRef)
	assert.Equal(t, "0712345678", fake.pushPhone)
	assert.True(t, fake.pushAmount.Equal(decimal.NewFromInt(500)))
}

func TestInitiatePaymentGeneratesReference(t *testing.T) {
	setupTest(t)
	user, _ := createTestUser(t, "0")
	fake := &fakeStkClient{}
	stubGateway(t, fake)

	w := doJSON(t, paymentRouter(user), http.MethodPost, "/v1/payments/initiate", gin.H{
		"amount":       "500",
		"phone_number": "0712345678",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, fake.pushRef, "SOKO-")
}

func TestInitiatePaymentRecordsSale(t *testing.T) {
	setupTest(t)
	user, _ := createTestUser(t, "0")
	fake := &fakeStkClient{}
	stubGateway(t, fake)

	product := models.Product{
		UserID: user.ID,
		Name:   "Maize flour 2kg",
		Price:  decimal.RequireFromString("250"),
		Stock:  10,
	}
	require.NoError(t, config.DB.Create(&product).Error)

	w := doJSON(t, paymentRouter(user), http.MethodPost, "/v1/payments/initiate", gin.H{
		"amount":       "500",
		"phone_number": "0712345678",
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 2},
		},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var sale models.Sale
	require.NoError(t, config.DB.Where("user_id = ?", user.ID).First(&sale).Error)
	assert.Equal(t, "500.00", sale.Total.StringFixed(2))

	var items []models.SaleItem
	require.NoError(t, config.DB.Where("sale_id = ?", sale.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, product.ID, items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "250.00", items[0].Price.StringFixed(2))

	var updated models.Product
	require.NoError(t, config.DB.First(&updated, product.ID).Error)
	assert.Equal(t, 8, updated.Stock)
}

func TestInitiatePaymentClampsStockShortfall(t *testing.T) {
	setupTest(t)
	user, _ := createTestUser(t, "0")
	fake := &fakeStkClient{}
	stubGateway(t, fake)

	product := models.Product{
		UserID: user.ID,
		Name:   "Cooking oil 1L",
		Price:  decimal.RequireFromString("300"),
		Stock:  1,
	}
	require.NoError(t, config.DB.Create(&product).Error)

	w := doJSON(t, paymentRouter(user), http.MethodPost, "/v1/payments/initiate", gin.H{
		"amount":       "900",
		"phone_number": "0712345678",
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 3},
		},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Stock never goes negative; the sale is still recorded in full.
	var updated models.Product
	require.NoError(t, config.DB.First(&updated, product.ID).Error)
	assert.Equal(t, 0, updated.Stock)

	var sale models.Sale
	require.NoError(t, config.DB.Where("user_id = ?", user.ID).First(&sale).Error)
	assert.Equal(t, "900.00", sale.Total.StringFixed(2))
}

func TestInitiatePaymentPushFailureLeavesNoLedgerRow(t *testing.T) {
	setupTest(t)
	user, _ := createTestUser(t, "0")
	fake := &fakeStkClient{pushErr: fmt.Errorf("stk push rejected: Invalid Amount")}
	stubGateway(t, fake)

	w := doJSON(t, paymentRouter(user), http.MethodPost, "/v1/payments/initiate", gin.H{
		"amount":       "500",
		"phone_number": "0712345678",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var count int64
	require.NoError(t, config.DB.Model(&models.Transaction{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestInitiatePaymentTokenFailure(t *testing.T) {
	setupTest(t)
	user, _ := createTestUser(t, "0")
	fake := &fakeStkClient{tokenErr: fmt.Errorf("auth rejected")}
	stubGateway(t, fake)

	w := doJSON(t, paymentRouter(user), http.MethodPost, "/v1/payments/initiate", gin.H{
		"amount":       "500",
		"phone_number": "0712345678",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var count int64
	require.NoError(t, config.DB.Model(&models.Transaction{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestInitiatePaymentRejectsNonPositiveAmount(t *testing.T) {
	setupTest(t)
	user, _ := createTestUser(t, "0")
	fake := &fakeStkClient{}
	stubGateway(t, fake)
	router := paymentRouter(user)

	w := doJSON(t, router, http.MethodPost, "/v1/payments/initiate", gin.H{
		"amount":       "-10",
		"phone_number": "0712345678",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/payments/initiate", gin.H{
		"amount":       "0",
		"phone_number": "0712345678",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitiatePaymentUsesMerchantCredentialOverrides(t *testing.T) {
	setupTest(t)
	user, _ := createTestUser(t, "0")
	fake := &fakeStkClient{}
	stubGateway(t, fake)

	profile := models.BusinessProfile{
		UserID:         user.ID,
		BusinessName:   "Mama Njeri Shop",
		MpesaShortcode: "600999",
		MpesaPasskey:   "merchant-passkey",
	}
	require.NoError(t, config.DB.Create(&profile).Error)

	w := doJSON(t, paymentRouter(user), http.MethodPost, "/v1/payments/initiate", gin.H{
		"amount":       "500",
		"phone_number": "0712345678",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Overridden fields win; the rest come from process config.
	assert.Equal(t, "600999", fake.creds.Shortcode)
	assert.Equal(t, "merchant-passkey", fake.creds.Passkey)
	assert.Equal(t, "default-key", fake.creds.ConsumerKey)
	assert.Equal(t, "default-secret", fake.creds.ConsumerSecret)
}
