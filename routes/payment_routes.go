package routes

import (
	"github.com/atiaa9916/stp-backend/internal/handlers"
	"github.com/atiaa9916/stp-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes mounts the top-up request endpoints.
func SetupPaymentRoutes(r *gin.RouterGroup, paymentHandler *handlers.PaymentHandler, jwtSecret string) {
	payments := r.Group("/payments")
	payments.Use(middleware.AuthRequired(jwtSecret))
	{
		payments.POST("/topup", paymentHandler.CreateTopUp)
		payments.GET("/topup", paymentHandler.ListTopUps)
		payments.POST("/visa/session", paymentHandler.CreateVisaSession)
	}
}
