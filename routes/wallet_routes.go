package routes

import (
	"github.com/atiaa9916/stp-backend/internal/handlers"
	"github.com/atiaa9916/stp-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupWalletRoutes mounts the wallet endpoints. Transfer role checks live in
// the service, which gates on the sender and recipient roles.
func SetupWalletRoutes(r *gin.RouterGroup, walletHandler *handlers.WalletHandler, jwtSecret string) {
	wallet := r.Group("/wallet")
	wallet.Use(middleware.AuthRequired(jwtSecret))
	{
		wallet.GET("/balance", walletHandler.GetBalance)
		wallet.POST("/transfer", walletHandler.Transfer)
		wallet.GET("/transactions", walletHandler.GetTransactions)
	}
}
