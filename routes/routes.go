package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sokopay/SokoPay/controllers"
	"github.com/sokopay/SokoPay/middleware"
)

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter() *gin.Engine {
	router := gin.New()

	api := router.Group("/v1")
	{
		// Daraja delivers STK results here; unauthenticated by contract.
		api.POST("/payments/mpesa/callback", controllers.MpesaCallback)

		user := api.Group("/")
		user.Use(middleware.AuthMiddleware())
		{
			user.POST("/payments/initiate", controllers.InitiateStkPayment)

			user.GET("/wallet", controllers.GetWalletBalance)
			user.GET("/wallet/entries", controllers.GetWalletEntries)

			user.POST("/withdrawals", controllers.RequestWithdrawal)
			user.GET("/withdrawals", controllers.ListMyWithdrawals)

			user.GET("/notifications", controllers.ListNotifications)
			user.PUT("/notifications/:id/read", controllers.MarkNotificationRead)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/withdrawals", controllers.ListWithdrawals)
			admin.PUT("/withdrawals/:id/approve", controllers.ApproveWithdrawal)
			admin.PUT("/withdrawals/:id/reject", controllers.RejectWithdrawal)
		}
	}

	return router
}
