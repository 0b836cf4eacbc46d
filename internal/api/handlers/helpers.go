package handlers

import (
	"errors"
	"strconv"
	"time"

	"docflow/internal/dto"
	"docflow/internal/models"
	"docflow/internal/service"
	"docflow/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var errInvalidID = errors.New("invalid id")

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// parseRef reads the :type and :id path parameters.
func parseRef(c *fiber.Ctx) (models.EntityRef, error) {
	entityType, err := models.ParseEntityType(c.Params("type"))
	if err != nil {
		return models.EntityRef{}, err
	}
	id, err := parseID(c)
	if err != nil {
		return models.EntityRef{}, err
	}
	return models.EntityRef{Type: entityType, ID: id}, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// respondError maps service errors to HTTP statuses. Unexpected errors are
// logged and hidden behind msg.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, msg string) error {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, service.ErrRevertNotAllowed), errors.Is(err, service.ErrNotReadyForDispatch):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotPending):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	logger.Error(msg, zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
}

func userEmail(c *fiber.Ctx) string {
	return middleware.UserEmail(c)
}

func formatTime(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	s := t.Format(layout)
	return &s
}

func withOCRData(resp dto.DocumentResponse, data models.OCRData) dto.DocumentResponse {
	resp.ExtractedAmount = data.ExtractedAmount
	resp.ExtractedDate = formatTime(data.ExtractedDate, dateLayout)
	resp.ExtractedProvider = data.ExtractedProvider
	resp.OCRProcessedAt = formatTime(data.OCRProcessedAt, time.RFC3339)
	resp.OCRErrorMessage = data.OCRErrorMessage
	return resp
}

func incomingFileResponse(f *models.IncomingFile) dto.DocumentResponse {
	filename, path := f.Filename, f.FilePath
	return withOCRData(dto.DocumentResponse{
		ID:         f.ID,
		EntityType: models.EntityTypeIncomingFile.String(),
		Filename:   &filename,
		FilePath:   &path,
		UploadDate: formatTime(&f.UploadDate, time.RFC3339),
		Checksum:   f.Checksum,
		Status:     string(f.Status),
	}, f.OCRData)
}

func billResponse(b *models.Bill) dto.DocumentResponse {
	return withOCRData(dto.DocumentResponse{
		ID:                     b.ID,
		EntityType:             models.EntityTypeBill.String(),
		Filename:               b.Filename,
		FilePath:               b.FilePath,
		UploadDate:             formatTime(b.UploadDate, time.RFC3339),
		Checksum:               b.Checksum,
		Status:                 string(b.Status),
		OriginalIncomingFileID: b.OriginalIncomingFileID,
	}, b.OCRData)
}

func receiptResponse(r *models.Receipt) dto.DocumentResponse {
	return withOCRData(dto.DocumentResponse{
		ID:         r.ID,
		EntityType: models.EntityTypeReceipt.String(),
		Filename:   r.Filename,
		FilePath:   r.FilePath,
		UploadDate: formatTime(r.UploadDate, time.RFC3339),
		Checksum:   r.Checksum,
		Status:     string(r.Status),
		BillID:     r.BillID,
	}, r.OCRData)
}

func attemptResponse(a *models.OCRAttempt) dto.OCRAttemptResponse {
	return dto.OCRAttemptResponse{
		ID:               a.ID,
		EntityType:       a.EntityType.String(),
		EntityID:         a.EntityID,
		AttemptDate:      a.AttemptDate.Format(time.RFC3339),
		OCREngine:        a.OCREngine,
		ProcessingStatus: string(a.ProcessingStatus),
		ExtractedData:    a.ExtractedData,
		ErrorMessage:     a.ErrorMessage,
	}
}
