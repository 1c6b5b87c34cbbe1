package controllers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/gateway"
	"github.com/sokopay/SokoPay/models"
	"github.com/sokopay/SokoPay/utils"
	"gorm.io/gorm"
)

// ackCallback responds 200 to Daraja. The delivery contract expects a
// response for every callback; anything else triggers redelivery.
func ackCallback(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": "ok"})
}

// POST /payments/mpesa/callback
//
// Settles a pending STK transaction from the gateway's out-of-band
// result. Safe under concurrent invocation and under redelivery of the
// same callback: the PENDING status guard makes the settlement apply at
// most once, and the status flip and wallet credit share one database
// transaction so neither is ever observed without the other.
func MpesaCallback(c *gin.Context) {
	utils.LogInfo("MpesaCallback called")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.LogError("Failed to read callback body: %v", err)
		ackCallback(c)
		return
	}

	cb, err := gateway.ParseSTKCallback(body)
	if err != nil {
		utils.LogError("Failed to parse callback: %v", err)
		ackCallback(c)
		return
	}
	utils.LogInfo("Callback received - MerchantRequestID: %s, ResultCode: %d", cb.MerchantRequestID, cb.ResultCode)

	transaction, err := findTransactionByMerchantRequestID(cb.MerchantRequestID)
	if err != nil {
		// Unknown correlation id: stale, duplicate, or test traffic.
		// Ack and drop; this is not an error state.
		utils.LogInfo("No transaction for MerchantRequestID: %s, dropping callback", cb.MerchantRequestID)
		ackCallback(c)
		return
	}

	if transaction.Status != models.TransactionStatusPending {
		utils.LogInfo("Duplicate callback for transaction ID: %d (status %s), ignoring", transaction.ID, transaction.Status)
		ackCallback(c)
		return
	}

	if cb.Success() {
		settlePayment(transaction, cb)
	} else {
		failPayment(transaction, cb)
	}

	ackCallback(c)
}

// settlePayment applies the one-and-only credit for a successful push:
// status flip, fee, receipt, wallet increment and ledger entry in a
// single transaction.
func settlePayment(transaction *models.Transaction, cb *gateway.STKCallback) {
	gross, err := cb.Amount()
	if err != nil {
		// Metadata without an amount is unusual but not fatal; fall
		// back to the amount we asked the customer for.
		utils.LogError("Callback for transaction ID: %d missing amount, using requested amount: %v", transaction.ID, err)
		gross = transaction.Amount
	}

	fee := config.App.TransactionFee
	credit := gross.Sub(fee)
	receipt := cb.ReceiptNumber()
	if receipt == "" {
		receipt = transaction.Reference
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		// Conditional flip out of PENDING: zero rows means another
		// delivery settled this transaction first, and nothing below
		// may run.
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transaction.ID, models.TransactionStatusPending).
			Updates(map[string]interface{}{
				"status":      models.TransactionStatusCompleted,
				"reference":   receipt,
				"fee_charged": fee,
				"result_desc": cb.ResultDesc,
				"updated_at":  time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("transaction %d already settled", transaction.ID)
		}

		if err := creditWallet(tx, transaction.WalletID, credit); err != nil {
			return err
		}

		txID := transaction.ID
		return recordWalletEntry(tx, models.WalletEntry{
			WalletID:      transaction.WalletID,
			Amount:        credit,
			Type:          models.EntryTypeCredit,
			Description:   fmt.Sprintf("M-Pesa payment from %s", cb.PayerPhone()),
			TransactionID: &txID,
			Reference:     receipt,
		})
	})
	if err != nil {
		utils.LogError("Failed to settle transaction ID: %d: %v", transaction.ID, err)
		return
	}
	utils.LogInfo("Settled transaction ID: %d - credited %s (gross %s, fee %s)", transaction.ID, credit.StringFixed(2), gross.StringFixed(2), fee.StringFixed(2))

	notifyUserWithEmail(transaction.UserID,
		"Payment received",
		fmt.Sprintf("Payment of KES %s settled to your wallet (receipt %s).", credit.StringFixed(2), receipt),
		models.NotificationKindSuccess,
		utils.PaymentReceivedBody(credit.StringFixed(2), receipt))
}

// failPayment marks the transaction failed. No wallet mutation.
func failPayment(transaction *models.Transaction, cb *gateway.STKCallback) {
	res := config.DB.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", transaction.ID, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":      models.TransactionStatusFailed,
			"result_desc": cb.ResultDesc,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		utils.LogError("Failed to mark transaction ID: %d failed: %v", transaction.ID, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.LogInfo("Transaction ID: %d already settled, skipping failure update", transaction.ID)
		return
	}
	utils.LogInfo("Marked transaction ID: %d as FAILED: %s", transaction.ID, cb.ResultDesc)

	notifyUser(transaction.UserID,
		"Payment failed",
		fmt.Sprintf("A payment of KES %s was not completed: %s", transaction.Amount.StringFixed(2), cb.ResultDesc),
		models.NotificationKindError)
}
