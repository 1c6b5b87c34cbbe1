package controllers

import (
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/models"
	"github.com/sokopay/SokoPay/utils"
)

// notifyUser inserts an in-app notification and, when the user has an
// email address and mail is configured, sends a copy by email. Every
// failure here is logged and swallowed: notifications are a side channel
// and must never undo or block a committed ledger mutation.
func notifyUser(userID uint, title, message, kind string) {
	notifyUserWithEmail(userID, title, message, kind, "<p>"+message+"</p>")
}

// notifyUserWithEmail is notifyUser with a custom HTML email body.
func notifyUserWithEmail(userID uint, title, message, kind, htmlBody string) {
	notification := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Kind:    kind,
	}
	if err := config.DB.Create(&notification).Error; err != nil {
		utils.LogError("Failed to create notification for user ID: %d: %v", userID, err)
	}

	if !utils.EmailEnabled() {
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		utils.LogError("Failed to load user %d for email notification: %v", userID, err)
		return
	}
	if user.Email == "" {
		return
	}
	if err := utils.SendEmail(user.Email, title, htmlBody); err != nil {
		utils.LogError("Failed to send notification email to user ID: %d: %v", userID, err)
	}
}
