package service

import (
	"context"
	"errors"
	"fmt"

	"docflow/internal/dto"
	"docflow/internal/models"

	"go.uber.org/zap"
)

// FileDispatchService turns approved incoming files into approved bills
// without human review.
type FileDispatchService struct {
	tx       Transactor
	files    IncomingFileStore
	bills    BillStore
	attempts *OCRAttemptService
	users    *UserResolver
	logger   *zap.Logger
}

func NewFileDispatchService(
	tx Transactor,
	files IncomingFileStore,
	bills BillStore,
	attempts *OCRAttemptService,
	users *UserResolver,
	logger *zap.Logger,
) *FileDispatchService {
	return &FileDispatchService{
		tx:       tx,
		files:    files,
		bills:    bills,
		attempts: attempts,
		users:    users,
		logger:   logger,
	}
}

// IsFileReadyForDispatch requires an approved file with a recorded OCR run.
func (s *FileDispatchService) IsFileReadyForDispatch(file *models.IncomingFile) bool {
	return file != nil &&
		file.Status == models.StatusApproved &&
		file.OCRRawJSON != nil &&
		file.OCRProcessedAt != nil
}

// DispatchIncomingFile creates an APPROVED bill from file, carries its OCR
// history over and removes the file so it cannot be dispatched twice.
func (s *FileDispatchService) DispatchIncomingFile(ctx context.Context, file *models.IncomingFile) (*models.Bill, error) {
	if !s.IsFileReadyForDispatch(file) {
		return nil, ErrNotReadyForDispatch
	}

	bill := billFromIncomingFile(file, models.StatusApproved)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.bills.Save(ctx, bill); err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}
		if _, err := s.attempts.copyHistory(ctx, file.Ref(), bill.Ref(), file.UserID); err != nil {
			return err
		}
		if err := s.files.Delete(ctx, file.ID); err != nil {
			return fmt.Errorf("failed to delete dispatched incoming file: %w", err)
		}
		return nil
	})
	if err != nil {
		dispatchTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	dispatchTotal.WithLabelValues("dispatched").Inc()
	s.logger.Info("Incoming file dispatched",
		zap.Int64("file_id", file.ID),
		zap.Int64("bill_id", bill.ID),
	)

	return bill, nil
}

// DispatchAllReadyFiles dispatches every ready file of every user. It runs
// without a user context and is meant for the batch job only.
func (s *FileDispatchService) DispatchAllReadyFiles(ctx context.Context) ([]*models.Bill, error) {
	files, err := s.files.ListByStatus(ctx, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved incoming files: %w", err)
	}
	return s.dispatchFiles(ctx, files), nil
}

// DispatchUserReadyFiles dispatches the ready files owned by userEmail. An
// unknown user has nothing to dispatch.
func (s *FileDispatchService) DispatchUserReadyFiles(ctx context.Context, userEmail string) ([]*models.Bill, error) {
	files, ok, err := s.userApprovedFiles(ctx, userEmail)
	if err != nil || !ok {
		return []*models.Bill{}, err
	}
	return s.dispatchFiles(ctx, files), nil
}

func (s *FileDispatchService) DispatchStatistics(ctx context.Context) (*dto.DispatchStatistics, error) {
	files, err := s.files.ListByStatus(ctx, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved incoming files: %w", err)
	}
	return s.statistics(files), nil
}

// UserDispatchStatistics counts only the files owned by userEmail.
func (s *FileDispatchService) UserDispatchStatistics(ctx context.Context, userEmail string) (*dto.DispatchStatistics, error) {
	files, _, err := s.userApprovedFiles(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	return s.statistics(files), nil
}

func (s *FileDispatchService) userApprovedFiles(ctx context.Context, userEmail string) ([]*models.IncomingFile, bool, error) {
	user, err := s.users.Resolve(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	files, err := s.files.ListByUserIDAndStatus(ctx, user.ID, models.StatusApproved)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list approved incoming files: %w", err)
	}
	return files, true, nil
}

// dispatchFiles dispatches each ready file independently. A failing file is
// logged and skipped.
func (s *FileDispatchService) dispatchFiles(ctx context.Context, files []*models.IncomingFile) []*models.Bill {
	bills := make([]*models.Bill, 0, len(files))
	for _, file := range files {
		if ctx.Err() != nil {
			s.logger.Warn("Dispatch interrupted", zap.Int("dispatched", len(bills)), zap.Error(ctx.Err()))
			break
		}
		if !s.IsFileReadyForDispatch(file) {
			dispatchTotal.WithLabelValues("skipped").Inc()
			continue
		}

		bill, err := s.DispatchIncomingFile(ctx, file)
		if err != nil {
			s.logger.Error("Failed to dispatch incoming file",
				zap.Int64("file_id", file.ID),
				zap.Error(err),
			)
			continue
		}
		bills = append(bills, bill)
	}

	s.logger.Info("Dispatch run finished",
		zap.Int("approved", len(files)),
		zap.Int("dispatched", len(bills)),
	)

	return bills
}

func (s *FileDispatchService) statistics(files []*models.IncomingFile) *dto.DispatchStatistics {
	stats := &dto.DispatchStatistics{TotalApprovedFiles: len(files)}
	for _, file := range files {
		if s.IsFileReadyForDispatch(file) {
			stats.ReadyForDispatch++
		}
	}
	stats.NeedsManualReview = stats.TotalApprovedFiles - stats.ReadyForDispatch
	return stats
}
