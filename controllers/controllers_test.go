package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTest points the package globals at a fresh in-memory database
// and a default config.
func setupTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory
	// database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	config.DB = db

	config.App = &config.Config{
		Mpesa: config.MpesaConfig{
			ConsumerKey:    "default-key",
			ConsumerSecret: "default-secret",
			Passkey:        "default-passkey",
			Shortcode:      "174379",
			CallbackURL:    "https://example.com/v1/payments/mpesa/callback",
			Env:            "sandbox",
		},
		TransactionFee:    decimal.RequireFromString("2.50"),
		WithdrawalMinimum: decimal.RequireFromString("100"),
	}
}

func createTestUser(t *testing.T, balance string) (models.User, models.Wallet) {
	t.Helper()
	user := models.User{
		Username: "merchant-" + balance,
		Email:    "merchant-" + balance + "@example.com",
	}
	require.NoError(t, config.DB.Create(&user).Error)

	wallet := models.Wallet{
		UserID:  user.ID,
		Balance: decimal.RequireFromString(balance),
	}
	require.NoError(t, config.DB.Create(&wallet).Error)
	return user, wallet
}

// asUser is a stand-in for the auth middleware in tests.
func asUser(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", user)
		c.Next()
	}
}

func asAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("admin", models.Admin{Email: "admin@example.com", IsActive: true})
		c.Next()
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func walletBalance(t *testing.T, walletID uint) decimal.Decimal {
	t.Helper()
	var wallet models.Wallet
	require.NoError(t, config.DB.First(&wallet, walletID).Error)
	return wallet.Balance
}
