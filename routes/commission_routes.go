package routes

import (
	"github.com/atiaa9916/stp-backend/internal/handlers"
	"github.com/atiaa9916/stp-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCommissionRoutes mounts the admin-only commission settings endpoints.
func SetupCommissionRoutes(r *gin.RouterGroup, commissionHandler *handlers.CommissionHandler, jwtSecret string) {
	commission := r.Group("/commission")
	commission.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		commission.GET("", commissionHandler.GetSettings)
		commission.PUT("", commissionHandler.UpdateSettings)
	}
}
