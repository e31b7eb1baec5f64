package handlers

import (
	"github.com/atiaa9916/stp-backend/internal/middleware"
	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/internal/services"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripHandler struct {
	tripService services.TripService
}

func NewTripHandler(tripService services.TripService) *TripHandler {
	return &TripHandler{
		tripService: tripService,
	}
}

// CreateTrip creates a trip for the authenticated passenger. Repeats with the
// same unique_request_id return the stored trip flagged duplicated.
func (h *TripHandler) CreateTrip(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request services.CreateTripRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	response, err := h.tripService.CreateTrip(c.Request.Context(), userID, &request)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	if response.Duplicated {
		utils.SuccessResponse(c, "Trip request already processed", response)
		return
	}
	utils.CreatedResponse(c, "Trip created", response)
}

// GetTrips lists trips scoped to the caller's role.
func (h *TripHandler) GetTrips(c *gin.Context) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	filter := buildTripFilter(c)
	params := utils.GetPaginationParams(c)

	trips, total, err := h.tripService.ListTrips(c.Request.Context(), userID, role, filter, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Trips retrieved", trips, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeStatus applies one status transition; the service authorizes the
// caller against the trip.
func (h *TripHandler) ChangeStatus(c *gin.Context) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	tripID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trip ID")
		return
	}

	var request changeStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	target := services.NormalizeTripStatus(request.Status)
	result, err := h.tripService.ChangeStatus(c.Request.Context(), tripID, userID, role, target)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip status updated", result)
}

// CancelTrip cancels a trip, refunding settled amounts.
func (h *TripHandler) CancelTrip(c *gin.Context) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	tripID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trip ID")
		return
	}

	result, err := h.tripService.CancelTrip(c.Request.Context(), tripID, userID, role)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip cancelled", result)
}

func buildTripFilter(c *gin.Context) *interfaces.TripFilter {
	filter := &interfaces.TripFilter{}

	if status := c.Query("status"); status != "" {
		filter.Status = services.NormalizeTripStatus(status)
	}
	if method := c.Query("payment_method"); method != "" {
		filter.PaymentMethod = models.PaymentMethod(method)
	}
	if scheduled := c.Query("is_scheduled"); scheduled != "" {
		value := scheduled == "true"
		filter.IsScheduled = &value
	}
	if paid := c.Query("paid"); paid != "" {
		value := paid == "true"
		filter.Paid = &value
	}

	return filter
}
