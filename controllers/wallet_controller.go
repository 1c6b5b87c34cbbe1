package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/models"
	"github.com/sokopay/SokoPay/utils"
)

// GET /wallet
func GetWalletBalance(c *gin.Context) {
	utils.LogInfo("GetWalletBalance called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.LogError("User not found in context")
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

	utils.Success(c, "Wallet balance retrieved successfully", gin.H{
		"balance":  wallet.Balance.StringFixed(2),
		"currency": wallet.Currency,
	})
}

// GET /wallet/entries
func GetWalletEntries(c *gin.Context) {
	utils.LogInfo("GetWalletEntries called")
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

	var entries []models.WalletEntry
	var total int64
	if err := config.DB.Model(&models.WalletEntry{}).Where("wallet_id = ?", wallet.ID).Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count wallet entries", err.Error())
		return
	}
	if err := config.DB.Where("wallet_id = ?", wallet.ID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		utils.InternalServerError(c, "Failed to get wallet entries", err.Error())
		return
	}

	formatted := make([]gin.H, len(entries))
	for i, entry := range entries {
		formatted[i] = gin.H{
			"id":          entry.ID,
			"amount":      entry.Amount.StringFixed(2),
			"type":        entry.Type,
			"description": entry.Description,
			"reference":   entry.Reference,
			"created_at":  entry.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.SuccessWithPagination(c, "Wallet entries retrieved successfully", gin.H{
		"entries": formatted,
		"wallet": gin.H{
			"balance": wallet.Balance.StringFixed(2),
		},
	}, total, page, limit)
}
