package routes

import (
	"github.com/atiaa9916/stp-backend/internal/handlers"
	"github.com/atiaa9916/stp-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRechargeRoutes mounts redemption for any authenticated user and the
// vendor code-management surfaces.
func SetupRechargeRoutes(r *gin.RouterGroup, rechargeHandler *handlers.RechargeHandler, jwtSecret string) {
	recharge := r.Group("/recharge")
	recharge.Use(middleware.AuthRequired(jwtSecret))
	{
		recharge.POST("/redeem", rechargeHandler.Redeem)

		vendor := recharge.Group("")
		vendor.Use(middleware.VendorRequired())
		{
			vendor.POST("/codes", rechargeHandler.MintCode)
			vendor.POST("/codes/batch", rechargeHandler.MintBatch)
			vendor.GET("/codes", rechargeHandler.ListCodes)
			vendor.GET("/stats", rechargeHandler.GetStats)
			vendor.GET("/usage", rechargeHandler.GetUsage)
			vendor.DELETE("/codes/:code", rechargeHandler.DisableCode)
		}
	}
}
