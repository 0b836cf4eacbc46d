package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"docflow/internal/models"
	"docflow/internal/repository"

	"go.uber.org/zap"
)

const noEngineConfiguredMessage = "OCR is not configured: no OCR engine is available to process this file"

// IncomingFileOCRService drives a single incoming file through OCR:
// PENDING -> PROCESSING -> APPROVED | REJECTED.
type IncomingFileOCRService struct {
	files     IncomingFileStore
	ocr       *OCRService
	users     *UserResolver
	uploadDir string
	logger    *zap.Logger
}

func NewIncomingFileOCRService(
	files IncomingFileStore,
	ocrService *OCRService,
	users *UserResolver,
	uploadDir string,
	logger *zap.Logger,
) *IncomingFileOCRService {
	return &IncomingFileOCRService{
		files:     files,
		ocr:       ocrService,
		users:     users,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// ProcessIncomingFile runs tracked OCR for file and persists the outcome. On
// return the file is APPROVED or REJECTED; engine failures end up on the file,
// only persistence errors are returned.
func (s *IncomingFileOCRService) ProcessIncomingFile(ctx context.Context, file *models.IncomingFile, userEmail string) (*models.IncomingFile, error) {
	if !s.ocr.HasAvailableEngines(ctx) {
		return s.rejectUnconfigured(ctx, file)
	}

	file.Status = models.StatusProcessing
	if err := s.files.Save(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to mark incoming file as processing: %w", err)
	}

	s.logger.Info("Processing incoming file",
		zap.Int64("file_id", file.ID),
		zap.String("filename", file.Filename),
	)

	result, err := s.ocr.ProcessEntityWithOCRTracking(ctx, file.Ref(), userEmail, s.resolvePath(file.FilePath))

	now := time.Now()
	if err != nil {
		msg := fmt.Sprintf("OCR processing failed: %v", err)
		file.Status = models.StatusRejected
		file.OCRProcessedAt = &now
		file.OCRErrorMessage = &msg

		s.logger.Warn("OCR processing failed",
			zap.Int64("file_id", file.ID),
			zap.Error(err),
		)
	} else {
		file.Status = models.StatusRejected
		if result.Success {
			file.Status = models.StatusApproved
		}
		file.OCRRawJSON = result.RawJSON
		file.ExtractedAmount = result.ExtractedAmount
		file.ExtractedDate = result.ExtractedDate
		file.ExtractedProvider = result.ExtractedProvider
		file.OCRErrorMessage = result.ErrorMessage
		file.OCRProcessedAt = &now
	}

	// PROCESSING must not outlive this call even if the caller went away.
	if err := s.files.Save(context.WithoutCancel(ctx), file); err != nil {
		return nil, fmt.Errorf("failed to save OCR outcome: %w", err)
	}
	documentStatusTotal.WithLabelValues(string(file.Status)).Inc()

	s.logger.Info("Incoming file processed",
		zap.Int64("file_id", file.ID),
		zap.String("status", string(file.Status)),
	)

	return file, nil
}

// ProcessPendingFile runs the first OCR pass on a PENDING file owned by
// userEmail. Files in any other status are refused with ErrNotPending.
func (s *IncomingFileOCRService) ProcessPendingFile(ctx context.Context, fileID int64, userEmail string) (*models.IncomingFile, error) {
	file, err := s.ownedFile(ctx, fileID, userEmail)
	if err != nil {
		return nil, err
	}
	if file.Status != models.StatusPending {
		return nil, ErrNotPending
	}

	return s.ProcessIncomingFile(ctx, file, userEmail)
}

// RetryOCRProcessing clears the previous extraction and processes the file
// again. ErrNotFound covers files owned by someone else.
func (s *IncomingFileOCRService) RetryOCRProcessing(ctx context.Context, fileID int64, userEmail string) (*models.IncomingFile, error) {
	file, err := s.ownedFile(ctx, fileID, userEmail)
	if err != nil {
		return nil, err
	}

	if !s.ocr.HasAvailableEngines(ctx) {
		return s.rejectUnconfigured(ctx, file)
	}

	file.OCRData.Clear()
	file.Status = models.StatusPending
	if err := s.files.Save(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to reset incoming file: %w", err)
	}

	s.logger.Info("Retrying OCR", zap.Int64("file_id", file.ID))

	return s.ProcessIncomingFile(ctx, file, userEmail)
}

func (s *IncomingFileOCRService) ownedFile(ctx context.Context, fileID int64, userEmail string) (*models.IncomingFile, error) {
	user, err := s.users.Resolve(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load incoming file: %w", err)
	}
	if file.UserID != user.ID {
		return nil, ErrNotFound
	}
	return file, nil
}

func (s *IncomingFileOCRService) rejectUnconfigured(ctx context.Context, file *models.IncomingFile) (*models.IncomingFile, error) {
	now := time.Now()
	msg := noEngineConfiguredMessage
	file.Status = models.StatusRejected
	file.OCRProcessedAt = &now
	file.OCRErrorMessage = &msg

	if err := s.files.Save(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to save rejected incoming file: %w", err)
	}
	documentStatusTotal.WithLabelValues(string(file.Status)).Inc()

	s.logger.Warn("Incoming file rejected, no OCR engine available", zap.Int64("file_id", file.ID))

	return file, nil
}

// resolvePath maps a stored path to the local filesystem. Relative paths are
// taken from the upload directory.
func (s *IncomingFileOCRService) resolvePath(stored string) string {
	if stored == "" || filepath.IsAbs(stored) || s.uploadDir == "" {
		return stored
	}
	return filepath.Join(s.uploadDir, stored)
}
