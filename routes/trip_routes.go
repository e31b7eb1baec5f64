package routes

import (
	"github.com/atiaa9916/stp-backend/internal/handlers"
	"github.com/atiaa9916/stp-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupTripRoutes mounts the trip lifecycle endpoints.
func SetupTripRoutes(r *gin.RouterGroup, tripHandler *handlers.TripHandler, jwtSecret string) {
	trips := r.Group("/trips")
	trips.Use(middleware.AuthRequired(jwtSecret))
	{
		trips.POST("", middleware.PassengerRequired(), tripHandler.CreateTrip)
		trips.GET("", tripHandler.GetTrips)
		trips.PATCH("/:id/status", tripHandler.ChangeStatus)
		trips.POST("/:id/cancel", tripHandler.CancelTrip)
	}
}
