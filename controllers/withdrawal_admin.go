package controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/models"
	"github.com/sokopay/SokoPay/utils"
	"gorm.io/gorm"
)

func withdrawalForAdmin(c *gin.Context) (*models.Withdrawal, bool) {
	if _, exists := c.Get("admin"); !exists {
		utils.LogError("Admin not found in context")
		utils.Unauthorized(c, "Admin not found")
		return nil, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid withdrawal ID", nil)
		return nil, false
	}

	var withdrawal models.Withdrawal
	if err := config.DB.First(&withdrawal, uint(id)).Error; err != nil {
		utils.NotFound(c, "Withdrawal not found")
		return nil, false
	}
	return &withdrawal, true
}

// PUT /admin/withdrawals/:id/approve
//
// The hold was already taken at request time, so approval only
// finalizes the record. The balance is never touched a second time.
func ApproveWithdrawal(c *gin.Context) {
	utils.LogInfo("ApproveWithdrawal called")
	withdrawal, ok := withdrawalForAdmin(c)
	if !ok {
		return
	}
	utils.LogInfo("Processing approval for withdrawal ID: %d", withdrawal.ID)

	res := config.DB.Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", withdrawal.ID, models.WithdrawalStatusPending).
		Updates(map[string]interface{}{
			"status":     models.WithdrawalStatusCompleted,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		utils.LogError("Failed to approve withdrawal ID: %d: %v", withdrawal.ID, res.Error)
		utils.InternalServerError(c, "Failed to approve withdrawal", res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		// Someone else approved or rejected first; this attempt fails
		// cleanly and repeats nothing.
		utils.LogInfo("Withdrawal ID: %d is no longer pending", withdrawal.ID)
		utils.Conflict(c, "Withdrawal is not pending", models.ErrInvalidState.Error())
		return
	}
	utils.LogInfo("Approved withdrawal ID: %d", withdrawal.ID)

	if owner, err := walletOwner(withdrawal.WalletID); err == nil {
		notifyUser(owner,
			"Withdrawal approved",
			fmt.Sprintf("Your withdrawal of KES %s to %s has been approved.", withdrawal.Amount.StringFixed(2), withdrawal.PhoneNumber),
			models.NotificationKindSuccess)
	}

	utils.Success(c, "Withdrawal approved", gin.H{
		"withdrawal": gin.H{
			"id":     withdrawal.ID,
			"amount": withdrawal.Amount.StringFixed(2),
			"status": models.WithdrawalStatusCompleted,
		},
	})
}

// PUT /admin/withdrawals/:id/reject
//
// Releases the hold: the status flip and the re-credit share one
// database transaction, so a withdrawal can never be rejected without
// the wallet getting the amount back, and never more than once.
func RejectWithdrawal(c *gin.Context) {
	utils.LogInfo("RejectWithdrawal called")
	withdrawal, ok := withdrawalForAdmin(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. reason is required", err.Error())
		return
	}
	utils.LogInfo("Processing rejection for withdrawal ID: %d", withdrawal.ID)

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", withdrawal.ID, models.WithdrawalStatusPending).
			Updates(map[string]interface{}{
				"status":           models.WithdrawalStatusRejected,
				"rejection_reason": req.Reason,
				"updated_at":       time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrInvalidState
		}

		if err := creditWallet(tx, withdrawal.WalletID, withdrawal.Amount); err != nil {
			return err
		}

		wdID := withdrawal.ID
		return recordWalletEntry(tx, models.WalletEntry{
			WalletID:     withdrawal.WalletID,
			Amount:       withdrawal.Amount,
			Type:         models.EntryTypeCredit,
			Description:  fmt.Sprintf("Release of rejected withdrawal #%d", withdrawal.ID),
			WithdrawalID: &wdID,
			Reference:    fmt.Sprintf("WD-RELEASE-%d", withdrawal.ID),
		})
	})
	if err != nil {
		if err == models.ErrInvalidState {
			utils.LogInfo("Withdrawal ID: %d is no longer pending", withdrawal.ID)
			utils.Conflict(c, "Withdrawal is not pending", models.ErrInvalidState.Error())
			return
		}
		utils.LogError("Failed to reject withdrawal ID: %d: %v", withdrawal.ID, err)
		utils.InternalServerError(c, "Failed to reject withdrawal", err.Error())
		return
	}
	utils.LogInfo("Rejected withdrawal ID: %d, released %s", withdrawal.ID, withdrawal.Amount.StringFixed(2))

	if owner, err := walletOwner(withdrawal.WalletID); err == nil {
		notifyUser(owner,
			"Withdrawal rejected",
			fmt.Sprintf("Your withdrawal of KES %s was rejected: %s. The amount has been returned to your wallet.", withdrawal.Amount.StringFixed(2), req.Reason),
			models.NotificationKindError)
	}

	utils.Success(c, "Withdrawal rejected and amount released", gin.H{
		"withdrawal": gin.H{
			"id":               withdrawal.ID,
			"amount":           withdrawal.Amount.StringFixed(2),
			"status":           models.WithdrawalStatusRejected,
			"rejection_reason": req.Reason,
		},
	})
}

// GET /admin/withdrawals
func ListWithdrawals(c *gin.Context) {
	utils.LogInfo("ListWithdrawals called")
	if _, exists := c.Get("admin"); !exists {
		utils.Unauthorized(c, "Admin not found")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := config.DB.Model(&models.Withdrawal{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count withdrawals", err.Error())
		return
	}

	var withdrawals []models.Withdrawal
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&withdrawals).Error; err != nil {
		utils.InternalServerError(c, "Failed to list withdrawals", err.Error())
		return
	}

	formatted := make([]gin.H, len(withdrawals))
	for i, wd := range withdrawals {
		formatted[i] = gin.H{
			"id":               wd.ID,
			"wallet_id":        wd.WalletID,
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

// walletOwner resolves the owning user of a wallet.
func walletOwner(walletID uint) (uint, error) {
	var wallet models.Wallet
	if err := config.DB.First(&wallet, walletID).Error; err != nil {
		utils.LogError("Failed to load wallet ID: %d: %v", walletID, err)
		return 0, err
	}
	return wallet.UserID, nil
}
