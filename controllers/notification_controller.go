package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/models"
	"github.com/sokopay/SokoPay/utils"
)

// GET /notifications
func ListNotifications(c *gin.Context) {
	utils.LogInfo("ListNotifications called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	offset := (page - 1) * limit

	var notifications []models.Notification
	var total int64
	if err := config.DB.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count notifications", err.Error())
		return
	}
	if err := config.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		utils.InternalServerError(c, "Failed to list notifications", err.Error())
		return
	}

	utils.SuccessWithPagination(c, "Notifications retrieved successfully", gin.H{
		"notifications": notifications,
	}, total, page, limit)
}

// PUT /notifications/:id/read
func MarkNotificationRead(c *gin.Context) {
	utils.LogInfo("MarkNotificationRead called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid notification ID", nil)
		return
	}

	res := config.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", uint(id), user.ID).
		Update("is_read", true)
	if res.Error != nil {
		utils.InternalServerError(c, "Failed to update notification", res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		utils.NotFound(c, "Notification not found")
		return
	}

	utils.Success(c, "Notification marked as read", nil)
}
