package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/models"
)

const settlementSuccessBody = `{
	"Body": {
		"stkCallback": {
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_191220191020363925",
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"CallbackMetadata": {
				"Item": [
					{"Name": "Amount", "Value": 500.00},
					{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
					{"Name": "TransactionDate", "Value": 20191219102115},
					{"Name": "PhoneNumber", "Value": 254712345678}
				]
			}
		}
	}
}`

const settlementFailureBody = `{
	"Body": {
		"stkCallback": {
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_191220191020363925",
			"ResultCode": 1032,
			"ResultDesc": "Request cancelled by user."
		}
	}
}`

func callbackRouter() *gin.Engine {
	router := gin.New()
	router.POST("/v1/payments/mpesa/callback", MpesaCallback)
	return router
}

func postCallback(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/v1/payments/mpesa/callback", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedPendingTransaction(t *testing.T, user models.User, wallet models.Wallet, amount string) models.Transaction {
	t.Helper()
	transaction := models.Transaction{
		UserID:            user.ID,
		WalletID:          wallet.ID,
		Type:              models.TransactionTypeStkPush,
		Amount:            decimal.RequireFromString(amount),
		Reference:         "SOKO-abc12345",
		PhoneNumber:       "254712345678",
		MerchantRequestID: "29115-34620561-1",
		CheckoutRequestID: "ws_CO_191220191020363925",
		Status:            models.TransactionStatusPending,
	}
	require.NoError(t, config.DB.Create(&transaction).Error)
	return transaction
}

func TestCallbackSettlesPendingTransaction(t *testing.T) {
	setupTest(t)
	user, wallet := createTestUser(t, "0")
	transaction := seedPendingTransaction(t, user, wallet, "500")

	w := postCallback(t, callbackRouter(), settlementSuccessBody)
	assert.Equal(t, http.StatusOK, w.Code)

	var settled models.Transaction
	require.NoError(t, config.DB.First(&settled, transaction.ID).Error)
	assert.Equal(t, models.TransactionStatusCompleted, settled.Status)
	assert.Equal(t, "NLJ7RT61SV", settled.Reference)
	assert.Equal(t, "2.50", settled.FeeCharged.StringFixed(2))

	// Credit is gross minus the flat fee.
	assert.Equal(t, "497.50", walletBalance(t, wallet.ID).StringFixed(2))

	var entries []models.WalletEntry
	require.NoError(t, config.DB.Where("wallet_id = ?", wallet.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntryTypeCredit, entries[0].Type)
	assert.Equal(t, "497.50", entries[0].Amount.StringFixed(2))
	assert.Equal(t, "NLJ7RT61SV", entries[0].Reference)
	require.NotNil(t, entries[0].TransactionID)
	assert.Equal(t, transaction.ID, *entries[0].TransactionID)

	var notifications []models.Notification
	require.NoError(t, config.DB.Where("user_id = ?", user.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationKindSuccess, notifications[0].Kind)
}

func TestCallbackRedeliveryIsIdempotent(t *testing.T) {
	setupTest(t)
	user, wallet := createTestUser(t, "0")
	seedPendingTransaction(t, user, wallet, "500")
	router := callbackRouter()

	first := postCallback(t, router, settlementSuccessBody)
	assert.Equal(t, http.StatusOK, first.Code)

	// Redelivery of the same result must ack without crediting again.
	second := postCallback(t, router, settlementSuccessBody)
	assert.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, "497.50", walletBalance(t, wallet.ID).StringFixed(2))

	var entryCount int64
	require.NoError(t, config.DB.Model(&models.WalletEntry{}).Where("wallet_id = ?", wallet.ID).Count(&entryCount).Error)
	assert.EqualValues(t, 1, entryCount)
}

func TestCallbackFailureAfterSuccessIsIgnored(t *testing.T) {
	setupTest(t)
	user, wallet := createTestUser(t, "0")
	transaction := seedPendingTransaction(t, user, wallet, "500")
	router := callbackRouter()

	postCallback(t, router, settlementSuccessBody)
	postCallback(t, router, settlementFailureBody)

	var settled models.Transaction
	require.NoError(t, config.DB.First(&settled, transaction.ID).Error)
	assert.Equal(t, models.TransactionStatusCompleted, settled.Status)
	assert.Equal(t, "497.50", walletBalance(t, wallet.ID).StringFixed(2))
}

func TestCallbackFailureMarksTransactionFailed(t *testing.T) {
	setupTest(t)
	user, wallet := createTestUser(t, "0")
	transaction := seedPendingTransaction(t, user, wallet, "500")

	w := postCallback(t, callbackRouter(), settlementFailureBody)
	assert.Equal(t, http.StatusOK, w.Code)

	var failed models.Transaction
	require.NoError(t, config.DB.First(&failed, transaction.ID).Error)
	assert.Equal(t, models.TransactionStatusFailed, failed.Status)
	assert.Equal(t, "Request cancelled by user.", failed.ResultDesc)

	// No money moves on failure.
	assert.Equal(t, "0.00", walletBalance(t, wallet.ID).StringFixed(2))

	var entryCount int64
	require.NoError(t, config.DB.Model(&models.WalletEntry{}).Where("wallet_id = ?", wallet.ID).Count(&entryCount).Error)
	assert.EqualValues(t, 0, entryCount)

	var notifications []models.Notification
	require.NoError(t, config.DB.Where("user_id = ?", user.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationKindError, notifications[0].Kind)
}

func TestCallbackUnknownCorrelationID(t *testing.T) {
	setupTest(t)
	_, wallet := createTestUser(t, "0")

	// No transaction seeded: the callback matches nothing and must be
	// acked and dropped without touching any wallet.
	w := postCallback(t, callbackRouter(), settlementSuccessBody)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "0.00", walletBalance(t, wallet.ID).StringFixed(2))

	var entryCount int64
	require.NoError(t, config.DB.Model(&models.WalletEntry{}).Count(&entryCount).Error)
	assert.EqualValues(t, 0, entryCount)
}

func TestCallbackMalformedBodyStillAcks(t *testing.T) {
	setupTest(t)

	w := postCallback(t, callbackRouter(), `not json at all`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCallbackMissingAmountFallsBackToRequested(t *testing.T) {
	setupTest(t)
	user, wallet := createTestUser(t, "0")
	transaction := seedPendingTransaction(t, user, wallet, "1000")

	// Success result whose metadata omits the Amount item.
	body := `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"}
					]
				}
			}
		}
	}`

	w := postCallback(t, callbackRouter(), body)
	assert.Equal(t, http.StatusOK, w.Code)

	var settled models.Transaction
	require.NoError(t, config.DB.First(&settled, transaction.ID).Error)
	assert.Equal(t, models.TransactionStatusCompleted, settled.Status)
	assert.Equal(t, "997.50", walletBalance(t, wallet.ID).StringFixed(2))
}
