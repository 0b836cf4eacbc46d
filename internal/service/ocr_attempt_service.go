package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docflow/internal/dto"
	"docflow/internal/models"
	"docflow/internal/repository"

	"go.uber.org/zap"
)

// OCRAttemptService is the audit ledger of OCR attempts. Attempts are keyed by
// subject (entity type + id) so they survive a document changing shape.
type OCRAttemptService struct {
	attempts OCRAttemptStore
	users    *UserResolver
	logger   *zap.Logger
}

func NewOCRAttemptService(attempts OCRAttemptStore, users *UserResolver, logger *zap.Logger) *OCRAttemptService {
	return &OCRAttemptService{
		attempts: attempts,
		users:    users,
		logger:   logger,
	}
}

// RecordOCRAttempt appends a new attempt owned by the user behind userEmail.
func (s *OCRAttemptService) RecordOCRAttempt(
	ctx context.Context,
	subject models.EntityRef,
	userEmail string,
	engineName string,
	status models.OCRProcessingStatus,
	extractedData, errorMessage, rawResponse *string,
) (*models.OCRAttempt, error) {
	user, err := s.users.Resolve(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, subject, user.ID, engineName, status, extractedData, errorMessage, rawResponse)
}

func (s *OCRAttemptService) record(
	ctx context.Context,
	subject models.EntityRef,
	userID int64,
	engineName string,
	status models.OCRProcessingStatus,
	extractedData, errorMessage, rawResponse *string,
) (*models.OCRAttempt, error) {
	now := time.Now()
	attempt := &models.OCRAttempt{
		EntityType:       subject.Type,
		EntityID:         subject.ID,
		UserID:           userID,
		AttemptDate:      now,
		OCREngine:        engineName,
		ProcessingStatus: status,
		ExtractedData:    extractedData,
		ErrorMessage:     errorMessage,
		RawResponse:      rawResponse,
		CreatedAt:        now,
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record OCR attempt: %w", err)
	}

	s.logger.Debug("OCR attempt recorded",
		zap.Int64("attempt_id", attempt.ID),
		zap.String("subject", subject.String()),
		zap.String("engine", engineName),
		zap.String("status", string(status)),
	)

	return attempt, nil
}

// UpdateAttemptStatus moves an attempt to status. Nil arguments keep the
// stored values.
func (s *OCRAttemptService) UpdateAttemptStatus(
	ctx context.Context,
	attemptID int64,
	status models.OCRProcessingStatus,
	extractedData, errorMessage *string,
) (*models.OCRAttempt, error) {
	return s.complete(ctx, attemptID, status, extractedData, errorMessage, nil)
}

func (s *OCRAttemptService) complete(
	ctx context.Context,
	attemptID int64,
	status models.OCRProcessingStatus,
	extractedData, errorMessage, rawResponse *string,
) (*models.OCRAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load OCR attempt: %w", err)
	}

	attempt.ProcessingStatus = status
	if extractedData != nil {
		attempt.ExtractedData = extractedData
	}
	if errorMessage != nil {
		attempt.ErrorMessage = errorMessage
	}
	if rawResponse != nil {
		attempt.RawResponse = rawResponse
	}

	if err := s.attempts.UpdateStatus(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to update OCR attempt: %w", err)
	}

	return attempt, nil
}

// OCRHistory lists the subject's attempts visible to the requesting user.
func (s *OCRAttemptService) OCRHistory(ctx context.Context, subject models.EntityRef, userEmail string) ([]*models.OCRAttempt, error) {
	user, err := s.users.Resolve(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return []*models.OCRAttempt{}, nil
		}
		return nil, err
	}

	attempts, err := s.attempts.ListBySubject(ctx, subject, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load OCR history: %w", err)
	}
	return attempts, nil
}

// TransferOCRHistory copies the user's attempts of from onto to. The source
// attempts stay where they are.
func (s *OCRAttemptService) TransferOCRHistory(ctx context.Context, from, to models.EntityRef, userEmail string) (bool, error) {
	user, err := s.users.Resolve(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	if _, err := s.copyHistory(ctx, from, to, user.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *OCRAttemptService) copyHistory(ctx context.Context, from, to models.EntityRef, userID int64) (int64, error) {
	copied, err := s.attempts.CopySubject(ctx, from, to, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to transfer OCR history %s -> %s: %w", from, to, err)
	}

	s.logger.Info("OCR history transferred",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int64("attempts", copied),
	)

	return copied, nil
}

// DeleteOCRHistory removes every attempt of subject regardless of owner.
func (s *OCRAttemptService) DeleteOCRHistory(ctx context.Context, subject models.EntityRef) (int64, error) {
	deleted, err := s.attempts.DeleteBySubject(ctx, subject)
	if err != nil {
		return 0, fmt.Errorf("failed to delete OCR history: %w", err)
	}

	s.logger.Info("OCR history deleted",
		zap.String("subject", subject.String()),
		zap.Int64("attempts", deleted),
	)

	return deleted, nil
}

func (s *OCRAttemptService) OCRStatistics(ctx context.Context, userEmail string) (*dto.OCRStatistics, error) {
	stats := &dto.OCRStatistics{PerEngineCounts: map[string]int{}}

	user, err := s.users.Resolve(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return stats, nil
		}
		return nil, err
	}

	attempts, err := s.attempts.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load OCR attempts: %w", err)
	}

	for _, a := range attempts {
		stats.TotalAttempts++
		stats.PerEngineCounts[a.OCREngine]++
		switch a.ProcessingStatus {
		case models.OCRStatusSuccess:
			stats.SuccessfulAttempts++
		case models.OCRStatusFailed:
			stats.FailedAttempts++
		case models.OCRStatusInProgress:
			stats.InProgressAttempts++
		}
	}

	return stats, nil
}
