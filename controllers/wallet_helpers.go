package controllers

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/models"
	"github.com/sokopay/SokoPay/utils"
	"gorm.io/gorm"
)

// getOrCreateWallet retrieves or creates the wallet for a user
func getOrCreateWallet(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := config.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			wallet = models.Wallet{
				UserID:  userID,
				Balance: decimal.Zero,
			}
			if err := config.DB.Create(&wallet).Error; err != nil {
				return nil, utils.WrapError(err, "create wallet")
			}
		} else {
			return nil, err
		}
	}
	return &wallet, nil
}

// creditWallet increments a wallet balance inside the given transaction.
// The increment happens in the database, never read-modify-write here,
// so concurrent credits to the same wallet compose without lost updates.
func creditWallet(tx *gorm.DB, walletID uint, amount decimal.Decimal) error {
	return tx.Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		}).Error
}

// debitWalletGuarded decrements a wallet balance only if the balance
// covers the amount. Returns ErrInsufficientFunds without mutating
// anything otherwise; the balance check and the decrement are a single
// conditional UPDATE, so two concurrent debits cannot jointly overdraw.
func debitWalletGuarded(tx *gorm.DB, walletID uint, amount decimal.Decimal) error {
	res := tx.Model(&models.Wallet{}).
		Where("id = ? AND balance >= ?", walletID, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrInsufficientFunds
	}
	return nil
}

// recordWalletEntry writes the ledger row that accompanies every
// balance mutation
func recordWalletEntry(tx *gorm.DB, entry models.WalletEntry) error {
	return tx.Create(&entry).Error
}
