package controllers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/models"
	"github.com/sokopay/SokoPay/utils"
)

type dailySalesRow struct {
	UserID uint
	Total  decimal.Decimal
}

// RunDailySalesDigest sums each merchant's settled sales for the
// current day and sends a digest notification to every merchant with a
// non-zero total. Read-only over the ledger; scheduled daily from main.
func RunDailySalesDigest() {
	utils.LogInfo("RunDailySalesDigest called")

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var rows []dailySalesRow
	err := config.DB.Table("sales").
		Select("sales.user_id AS user_id, SUM(sales.total) AS total").
		Joins("JOIN transactions ON transactions.id = sales.transaction_id").
		Where("transactions.status = ?", models.TransactionStatusCompleted).
		Where("transactions.updated_at >= ?", startOfDay).
		Group("sales.user_id").
		Scan(&rows).Error
	if err != nil {
		utils.LogError("Failed to aggregate daily sales: %v", err)
		return
	}
	utils.LogInfo("Daily sales digest covers %d merchants", len(rows))

	date := now.Format("2006-01-02")
	for _, row := range rows {
		if row.Total.LessThanOrEqual(decimal.Zero) {
			continue
		}
		notifyUserWithEmail(row.UserID,
			"Daily sales summary",
			fmt.Sprintf("Your settled sales for %s total KES %s.", date, row.Total.StringFixed(2)),
			models.NotificationKindInfo,
			utils.DailyDigestBody(row.Total.StringFixed(2), date))
	}
}
