package controllers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/gateway"
	"github.com/sokopay/SokoPay/models"
	"github.com/sokopay/SokoPay/utils"
	"gorm.io/gorm"
)

// POST /withdrawals
//
// Creates a payout request and places the hold: the wallet is debited by
// the requested amount immediately so pending requests cannot jointly
// overdraw the balance while awaiting review.
func RequestWithdrawal(c *gin.Context) {
	utils.LogInfo("RequestWithdrawal called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.LogError("User not found in context")
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)
	utils.LogInfo("Processing withdrawal request for user ID: %d", user.ID)

	var req struct {
		Amount      decimal.Decimal `json:"amount" binding:"required"`
		PhoneNumber string          `json:"phone_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid withdrawal request for user ID: %d: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. amount and phone_number are required", err.Error())
		return
	}

	if req.Amount.LessThan(config.App.WithdrawalMinimum) {
		utils.LogInfo("Withdrawal below minimum for user ID: %d - requested %s", user.ID, req.Amount.StringFixed(2))
		utils.BadRequest(c, fmt.Sprintf("Minimum withdrawal amount is KES %s", config.App.WithdrawalMinimum.StringFixed(2)),
			models.ErrBelowMinimum.Error())
		return
	}

	wallet, err := getOrCreateWallet(user.ID)
	if err != nil {
		utils.LogError("Failed to get wallet for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get wallet", err.Error())
		return
	}

	var withdrawal models.Withdrawal
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		// Hold: the balance check and the decrement are one conditional
		// UPDATE inside this transaction.
		if err := debitWalletGuarded(tx, wallet.ID, req.Amount); err != nil {
			return err
		}

		withdrawal = models.Withdrawal{
			WalletID:    wallet.ID,
			Amount:      req.Amount,
			PhoneNumber: gateway.NormalizePhone(req.PhoneNumber),
			Status:      models.WithdrawalStatusPending,
		}
		if err := tx.Create(&withdrawal).Error; err != nil {
			return err
		}

		wdID := withdrawal.ID
		return recordWalletEntry(tx, models.WalletEntry{
			WalletID:     wallet.ID,
			Amount:       req.Amount,
			Type:         models.EntryTypeDebit,
			Description:  fmt.Sprintf("Hold for withdrawal #%d", withdrawal.ID),
			WithdrawalID: &wdID,
			Reference:    fmt.Sprintf("WD-HOLD-%d", withdrawal.ID),
		})
	})
	if err != nil {
		if err == models.ErrInsufficientFunds {
			utils.LogInfo("Insufficient funds for withdrawal - user ID: %d, requested %s", user.ID, req.Amount.StringFixed(2))
			utils.BadRequest(c, "Insufficient wallet balance", models.ErrInsufficientFunds.Error())
			return
		}
		utils.LogError("Failed to create withdrawal for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create withdrawal", err.Error())
		return
	}
	utils.LogInfo("Created withdrawal ID: %d for user ID: %d, amount %s held", withdrawal.ID, user.ID, req.Amount.StringFixed(2))

	utils.Created(c, "Withdrawal requested. The amount has been held from your wallet pending review.", gin.H{
		"withdrawal": gin.H{
			"id":           withdrawal.ID,
			"amount":       withdrawal.Amount.StringFixed(2),
			"phone_number": withdrawal.PhoneNumber,
			"status":       withdrawal.Status,
			"created_at":   withdrawal.CreatedAt.Format("2006-01-02 15:04:05"),
		},
	})
}

// GET /withdrawals
func ListMyWithdrawals(c *gin.Context) {
	utils.LogInfo("ListMyWithdrawals called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	wallet, err := getOrCreateWallet(user.ID)
	if err != nil {
		utils.LogError("Failed to get wallet for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get wallet", err.Error())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	offset := (page - 1) * limit

	var withdrawals []models.Withdrawal
	var total int64
	if err := config.DB.Model(&models.Withdrawal{}).Where("wallet_id = ?", wallet.ID).Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count withdrawals", err.Error())
		return
	}
	if err := config.DB.Where("wallet_id = ?", wallet.ID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&withdrawals).Error; err != nil {
		utils.InternalServerError(c, "Failed to list withdrawals", err.Error())
		return
	}

	formatted := make([]gin.H, len(withdrawals))
	for i, wd := range withdrawals {
		formatted[i] = gin.H{
			"id":               wd.ID,
			"amount":           wd.Amount.StringFixed(2),
			"phone_number":     wd.PhoneNumber,
			"status":           wd.Status,
			"rejection_reason": wd.RejectionReason,
			"created_at":       wd.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.SuccessWithPagination(c, "Withdrawals retrieved successfully", gin.H{
		"withdrawals": formatted,
	}, total, page, limit)
}
