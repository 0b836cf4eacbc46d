package handlers

import (
	"docflow/internal/dto"
	"docflow/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DocumentHandler exposes conversions between incoming files, bills and
// receipts.
type DocumentHandler struct {
	conversion *service.EntityConversionService
	logger     *zap.Logger
}

func NewDocumentHandler(conversion *service.EntityConversionService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		conversion: conversion,
		logger:     logger,
	}
}

// ConvertToBill godoc
// @Summary Convert an incoming file to a bill
// @Description Moves the file and its OCR history to a new PENDING bill
// @Tags documents
// @Produce json
// @Param id path int true "Incoming file ID"
// @Security Bearer
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /incoming-files/{id}/convert/bill [post]
func (h *DocumentHandler) ConvertToBill(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid incoming file ID")
	}

	bill, err := h.conversion.ConvertIncomingFileToBill(c.UserContext(), id, userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to convert incoming file")
	}

	return c.Status(fiber.StatusCreated).JSON(billResponse(bill))
}

// ConvertToReceipt godoc
// @Summary Convert an incoming file to a receipt
// @Tags documents
// @Produce json
// @Param id path int true "Incoming file ID"
// @Security Bearer
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /incoming-files/{id}/convert/receipt [post]
func (h *DocumentHandler) ConvertToReceipt(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid incoming file ID")
	}

	receipt, err := h.conversion.ConvertIncomingFileToReceipt(c.UserContext(), id, userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to convert incoming file")
	}

	return c.Status(fiber.StatusCreated).JSON(receiptResponse(receipt))
}

// RevertBill godoc
// @Summary Revert a bill to an incoming file
// @Tags documents
// @Produce json
// @Param id path int true "Bill ID"
// @Security Bearer
// @Success 201 {object} dto.DocumentResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /bills/{id}/revert [post]
func (h *DocumentHandler) RevertBill(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid bill ID")
	}

	file, err := h.conversion.RevertBillToIncomingFile(c.UserContext(), id, userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to revert bill")
	}

	return c.Status(fiber.StatusCreated).JSON(incomingFileResponse(file))
}

// RevertReceipt godoc
// @Summary Revert a receipt to an incoming file
// @Description Requires the receipt to still know its filename and path
// @Tags documents
// @Produce json
// @Param id path int true "Receipt ID"
// @Security Bearer
// @Success 201 {object} dto.DocumentResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /receipts/{id}/revert [post]
func (h *DocumentHandler) RevertReceipt(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid receipt ID")
	}

	file, err := h.conversion.RevertReceiptToIncomingFile(c.UserContext(), id, userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to revert receipt")
	}

	return c.Status(fiber.StatusCreated).JSON(incomingFileResponse(file))
}

// Revertible godoc
// @Summary Check whether a document can be reverted to an incoming file
// @Tags documents
// @Produce json
// @Param type path string true "bill, receipt or incoming-file"
// @Param id path int true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.RevertibleResponse
// @Failure 400 {object} map[string]string
// @Router /documents/{type}/{id}/revertible [get]
func (h *DocumentHandler) Revertible(c *fiber.Ctx) error {
	ref, err := parseRef(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ok, err := h.conversion.CanRevertToIncomingFile(c.UserContext(), ref, userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to check revertibility")
	}

	return c.JSON(dto.RevertibleResponse{
		EntityType: ref.Type.String(),
		EntityID:   ref.ID,
		Revertible: ok,
	})
}
