package handlers

import (
	"docflow/internal/dto"
	"docflow/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DispatchHandler struct {
	dispatch *service.FileDispatchService
	logger   *zap.Logger
}

func NewDispatchHandler(dispatch *service.FileDispatchService, logger *zap.Logger) *DispatchHandler {
	return &DispatchHandler{
		dispatch: dispatch,
		logger:   logger,
	}
}

// Statistics godoc
// @Summary Approved incoming files of the current user by dispatch readiness
// @Tags dispatch
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.DispatchStatistics
// @Router /dispatch/statistics [get]
func (h *DispatchHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.dispatch.UserDispatchStatistics(c.UserContext(), userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load dispatch statistics")
	}
	return c.JSON(stats)
}

// Run godoc
// @Summary Dispatch the current user's ready incoming files to bills
// @Tags dispatch
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.DispatchRunResponse
// @Router /dispatch/run [post]
func (h *DispatchHandler) Run(c *fiber.Ctx) error {
	bills, err := h.dispatch.DispatchUserReadyFiles(c.UserContext(), userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Dispatch failed")
	}

	resp := dto.DispatchRunResponse{
		Dispatched: len(bills),
		Bills:      make([]dto.DocumentResponse, 0, len(bills)),
	}
	for _, b := range bills {
		resp.Bills = append(resp.Bills, billResponse(b))
	}
	return c.JSON(resp)
}
