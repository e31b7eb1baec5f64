package handlers

import (
	"github.com/atiaa9916/stp-backend/internal/middleware"
	"github.com/atiaa9916/stp-backend/internal/services"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// CreateTopUp files a pending top-up request for manual review.
func (h *PaymentHandler) CreateTopUp(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request services.TopUpRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	record, err := h.paymentService.CreateTopUp(c.Request.Context(), userID, &request)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Top-up request filed", record)
}

// ListTopUps lists the caller's own top-up requests.
func (h *PaymentHandler) ListTopUps(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	requests, total, err := h.paymentService.ListTopUps(c.Request.Context(), userID, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Top-up requests retrieved", requests, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

type visaSessionRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// CreateVisaSession returns a sandbox card checkout session.
func (h *PaymentHandler) CreateVisaSession(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request visaSessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	session, err := h.paymentService.CreateVisaSession(c.Request.Context(), userID, request.Amount)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Card session created", session)
}
