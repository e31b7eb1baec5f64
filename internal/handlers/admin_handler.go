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

// AdminHandler groups the administrative surfaces: recharge oversight, top-up
// review, trip and ledger search, and the manual sweep trigger.
type AdminHandler struct {
	rechargeService services.RechargeService
	paymentService  services.PaymentService
	tripService     services.TripService
	walletService   services.WalletService
	sweeperService  services.SweeperService
}

func NewAdminHandler(
	rechargeService services.RechargeService,
	paymentService services.PaymentService,
	tripService services.TripService,
	walletService services.WalletService,
	sweeperService services.SweeperService,
) *AdminHandler {
	return &AdminHandler{
		rechargeService: rechargeService,
		paymentService:  paymentService,
		tripService:     tripService,
		walletService:   walletService,
		sweeperService:  sweeperService,
	}
}

// ListRechargeCodes lists all recharge codes across vendors.
func (h *AdminHandler) ListRechargeCodes(c *gin.Context) {
	filter := &interfaces.RechargeCodeFilter{}
	if vendor := c.Query("vendor_id"); vendor != "" {
		vendorID, err := primitive.ObjectIDFromHex(vendor)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid vendor ID")
			return
		}
		filter.VendorID = &vendorID
	}
	if used := c.Query("is_used"); used != "" {
		value := used == "true"
		filter.IsUsed = &value
	}

	params := utils.GetPaginationParams(c)
	codes, total, err := h.rechargeService.ListAllCodes(c.Request.Context(), filter, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Recharge codes retrieved", codes, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

type revertRequest struct {
	Reason string `json:"reason"`
}

// RevertRechargeCode undoes a redemption and disables the code.
func (h *AdminHandler) RevertRechargeCode(c *gin.Context) {
	adminID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	codeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid code ID")
		return
	}

	var request revertRequest
	_ = c.ShouldBindJSON(&request)

	if err := h.rechargeService.Revert(c.Request.Context(), adminID, codeID, request.Reason); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Recharge code reverted", nil)
}

// DeleteRechargeCode removes an unused code.
func (h *AdminHandler) DeleteRechargeCode(c *gin.Context) {
	adminID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	codeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid code ID")
		return
	}

	if err := h.rechargeService.DeleteCode(c.Request.Context(), adminID, codeID); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Recharge code deleted", nil)
}

type resolveTopUpRequest struct {
	Notes string `json:"notes"`
}

// ApproveTopUp approves a pending top-up and credits the wallet.
func (h *AdminHandler) ApproveTopUp(c *gin.Context) {
	adminID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID")
		return
	}

	var request resolveTopUpRequest
	_ = c.ShouldBindJSON(&request)

	record, err := h.paymentService.ApproveTopUp(c.Request.Context(), adminID, requestID, request.Notes)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Top-up request approved", record)
}

// RejectTopUp rejects a pending top-up with notes.
func (h *AdminHandler) RejectTopUp(c *gin.Context) {
	adminID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID")
		return
	}

	var request resolveTopUpRequest
	_ = c.ShouldBindJSON(&request)

	record, err := h.paymentService.RejectTopUp(c.Request.Context(), adminID, requestID, request.Notes)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Top-up request rejected", record)
}

// ListTrips searches trips across all users.
func (h *AdminHandler) ListTrips(c *gin.Context) {
	adminID, role, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	filter := buildTripFilter(c)
	if passenger := c.Query("passenger_id"); passenger != "" {
		passengerID, err := primitive.ObjectIDFromHex(passenger)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid passenger ID")
			return
		}
		filter.PassengerID = &passengerID
	}
	if driver := c.Query("driver_id"); driver != "" {
		driverID, err := primitive.ObjectIDFromHex(driver)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid driver ID")
			return
		}
		filter.DriverID = &driverID
	}

	params := utils.GetPaginationParams(c)
	trips, total, err := h.tripService.ListTrips(c.Request.Context(), adminID, role, filter, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Trips retrieved", trips, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// ListTransactions searches the ledger across all users.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	filter := &interfaces.TransactionFilter{}
	if user := c.Query("user_id"); user != "" {
		userID, err := primitive.ObjectIDFromHex(user)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid user ID")
			return
		}
		filter.UserID = &userID
	}
	if trip := c.Query("trip_id"); trip != "" {
		tripID, err := primitive.ObjectIDFromHex(trip)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid trip ID")
			return
		}
		filter.TripID = &tripID
	}
	if txType := c.Query("type"); txType != "" {
		filter.Type = models.TransactionType(txType)
	}

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.walletService.ListTransactions(c.Request.Context(), filter, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Transactions retrieved", transactions, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// SweepScheduledTrips runs the sweeper once, on demand.
func (h *AdminHandler) SweepScheduledTrips(c *gin.Context) {
	report := h.sweeperService.Run(c.Request.Context())
	utils.SuccessResponse(c, "Sweep finished", report)
}
