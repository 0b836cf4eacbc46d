package handlers

import (
	"docflow/internal/dto"
	"docflow/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type OCRHandler struct {
	incoming *service.IncomingFileOCRService
	ocr      *service.OCRService
	attempts *service.OCRAttemptService
	logger   *zap.Logger
}

func NewOCRHandler(
	incoming *service.IncomingFileOCRService,
	ocrService *service.OCRService,
	attempts *service.OCRAttemptService,
	logger *zap.Logger,
) *OCRHandler {
	return &OCRHandler{
		incoming: incoming,
		ocr:      ocrService,
		attempts: attempts,
		logger:   logger,
	}
}

// ProcessOCR godoc
// @Summary Run the first OCR pass on a pending incoming file
// @Tags ocr
// @Produce json
// @Param id path int true "Incoming file ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /incoming-files/{id}/ocr [post]
func (h *OCRHandler) ProcessOCR(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid incoming file ID")
	}

	file, err := h.incoming.ProcessPendingFile(c.UserContext(), id, userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to process incoming file")
	}

	return c.JSON(incomingFileResponse(file))
}

// RetryOCR godoc
// @Summary Re-run OCR on an incoming file
// @Description Clears previous extraction results and processes the file again
// @Tags ocr
// @Produce json
// @Param id path int true "Incoming file ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /incoming-files/{id}/ocr/retry [post]
func (h *OCRHandler) RetryOCR(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid incoming file ID")
	}

	file, err := h.incoming.RetryOCRProcessing(c.UserContext(), id, userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to retry OCR")
	}

	return c.JSON(incomingFileResponse(file))
}

// History godoc
// @Summary OCR attempts recorded for a document
// @Tags ocr
// @Produce json
// @Param type path string true "bill, receipt or incoming-file"
// @Param id path int true "Document ID"
// @Security Bearer
// @Success 200 {array} dto.OCRAttemptResponse
// @Failure 400 {object} map[string]string
// @Router /documents/{type}/{id}/ocr-history [get]
func (h *OCRHandler) History(c *fiber.Ctx) error {
	ref, err := parseRef(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	attempts, err := h.attempts.OCRHistory(c.UserContext(), ref, userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load OCR history")
	}

	resp := make([]dto.OCRAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, attemptResponse(a))
	}
	return c.JSON(resp)
}

// Statistics godoc
// @Summary OCR attempt statistics of the current user
// @Tags ocr
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.OCRStatistics
// @Router /ocr/statistics [get]
func (h *OCRHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.attempts.OCRStatistics(c.UserContext(), userEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load OCR statistics")
	}
	return c.JSON(stats)
}

// Engines godoc
// @Summary Available OCR engines in priority order
// @Tags ocr
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.OCREnginesResponse
// @Router /ocr/engines [get]
func (h *OCRHandler) Engines(c *fiber.Ctx) error {
	names := h.ocr.AvailableEngineNames(c.UserContext())
	return c.JSON(dto.OCREnginesResponse{
		Available: len(names) > 0,
		Engines:   names,
	})
}
