package handlers

import (
	"github.com/atiaa9916/stp-backend/internal/middleware"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/internal/services"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type RechargeHandler struct {
	rechargeService services.RechargeService
}

func NewRechargeHandler(rechargeService services.RechargeService) *RechargeHandler {
	return &RechargeHandler{
		rechargeService: rechargeService,
	}
}

type redeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// Redeem consumes a recharge code and credits the caller's wallet.
func (h *RechargeHandler) Redeem(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request redeemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	balance, err := h.rechargeService.Redeem(c.Request.Context(), userID, request.Code)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Recharge code redeemed", gin.H{"balance": balance})
}

// MintCode creates one code for the authenticated vendor.
func (h *RechargeHandler) MintCode(c *gin.Context) {
	vendorID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request services.MintCodeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	code, err := h.rechargeService.MintCode(c.Request.Context(), vendorID, &request)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Recharge code created", code)
}

// MintBatch creates a batch of codes for the authenticated vendor.
func (h *RechargeHandler) MintBatch(c *gin.Context) {
	vendorID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request services.MintBatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	codes, err := h.rechargeService.MintBatch(c.Request.Context(), vendorID, &request)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Recharge codes created", codes)
}

// ListCodes lists the vendor's own codes.
func (h *RechargeHandler) ListCodes(c *gin.Context) {
	vendorID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	filter := &interfaces.RechargeCodeFilter{}
	if used := c.Query("is_used"); used != "" {
		value := used == "true"
		filter.IsUsed = &value
	}

	params := utils.GetPaginationParams(c)
	codes, total, err := h.rechargeService.ListVendorCodes(c.Request.Context(), vendorID, filter, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Recharge codes retrieved", codes, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// GetStats returns the vendor's minting and redemption totals.
func (h *RechargeHandler) GetStats(c *gin.Context) {
	vendorID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	stats, err := h.rechargeService.VendorStats(c.Request.Context(), vendorID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Vendor stats retrieved", stats)
}

// GetUsage lists the vendor's redeemed codes with who redeemed them.
func (h *RechargeHandler) GetUsage(c *gin.Context) {
	vendorID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	usage, err := h.rechargeService.VendorUsage(c.Request.Context(), vendorID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Code usage retrieved", usage)
}

// DisableCode takes one of the vendor's unused codes out of circulation.
func (h *RechargeHandler) DisableCode(c *gin.Context) {
	vendorID, _, ok := middleware.CurrentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.rechargeService.DisableCode(c.Request.Context(), vendorID, c.Param("code")); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Recharge code disabled", nil)
}
