package routes

import (
	"github.com/atiaa9916/stp-backend/internal/handlers"
	"github.com/atiaa9916/stp-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes mounts the administrative surfaces.
func SetupAdminRoutes(r *gin.RouterGroup, adminHandler *handlers.AdminHandler, jwtSecret string) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("/recharge/codes", adminHandler.ListRechargeCodes)
		admin.POST("/recharge/:id/revert", adminHandler.RevertRechargeCode)
		admin.DELETE("/recharge/:id", adminHandler.DeleteRechargeCode)

		admin.POST("/payments/:id/approve", adminHandler.ApproveTopUp)
		admin.POST("/payments/:id/reject", adminHandler.RejectTopUp)

		admin.GET("/trips", adminHandler.ListTrips)
		admin.GET("/transactions", adminHandler.ListTransactions)

		admin.POST("/jobs/sweep-scheduled", adminHandler.SweepScheduledTrips)
	}
}
