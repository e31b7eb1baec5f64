package handlers

import (
	"github.com/atiaa9916/stp-backend/internal/services"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommissionHandler struct {
	commissionService services.CommissionService
}

func NewCommissionHandler(commissionService services.CommissionService) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
	}
}

// GetSettings returns the stored commission settings. scope=latest returns
// the most recent row even when inactive; the default is the active row.
func (h *CommissionHandler) GetSettings(c *gin.Context) {
	scope := c.DefaultQuery("scope", "active")

	settings, err := h.commissionService.GetSettings(c.Request.Context(), scope)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	if settings == nil {
		utils.NotFoundResponse(c, "Commission settings")
		return
	}

	utils.SuccessResponse(c, "Commission settings retrieved", settings)
}

// UpdateSettings stores new commission settings, activating them when asked.
func (h *CommissionHandler) UpdateSettings(c *gin.Context) {
	var request services.UpdateCommissionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	settings, err := h.commissionService.UpdateSettings(c.Request.Context(), &request)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Commission settings updated", settings)
}
