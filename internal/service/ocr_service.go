package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docflow/internal/models"
	"docflow/internal/ocr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EngineNone tags the attempt recorded when no engine could be used.
const EngineNone = "NONE"

const noEngineMessage = "no OCR engine is available"

type OCRService struct {
	engines  []ocr.Engine
	attempts *OCRAttemptService
	timeout  time.Duration
	logger   *zap.Logger
}

// NewOCRService wires the engines in priority order. A zero timeout leaves
// engine calls bounded only by the caller's context.
func NewOCRService(engines []ocr.Engine, attempts *OCRAttemptService, timeout time.Duration, logger *zap.Logger) *OCRService {
	return &OCRService{
		engines:  engines,
		attempts: attempts,
		timeout:  timeout,
		logger:   logger,
	}
}

func (s *OCRService) HasAvailableEngines(ctx context.Context) bool {
	return s.firstAvailable(ctx) != nil
}

// AvailableEngineNames lists usable engines in priority order.
func (s *OCRService) AvailableEngineNames(ctx context.Context) []string {
	names := make([]string, 0, len(s.engines))
	for _, engine := range s.engines {
		if engine.IsAvailable(ctx) {
			names = append(names, engine.Name())
		}
	}
	return names
}

func (s *OCRService) firstAvailable(ctx context.Context) ocr.Engine {
	for _, engine := range s.engines {
		if engine.IsAvailable(ctx) {
			return engine
		}
	}
	return nil
}

// ProcessFileWithFallback tries every available engine in order and returns
// the first successful result. Nothing is recorded in the attempt ledger.
func (s *OCRService) ProcessFileWithFallback(ctx context.Context, path string) *ocr.Result {
	lastError := noEngineMessage

	for _, engine := range s.engines {
		if !engine.IsAvailable(ctx) {
			continue
		}

		result, err := s.callEngine(ctx, engine, path)
		if err != nil {
			s.logger.Warn("OCR engine failed, trying next",
				zap.String("engine", engine.Name()),
				zap.String("file", path),
				zap.Error(err),
			)
			lastError = err.Error()
			continue
		}
		if result.Success {
			return result
		}

		if msg := result.Error(); msg != "" {
			lastError = msg
		} else {
			lastError = fmt.Sprintf("%s returned no data", engine.Name())
		}
	}

	return ocr.Failure(lastError)
}

// ProcessEntityWithOCRTracking runs the first available engine only and audits
// the call. The returned error is the engine's own failure; the attempt is
// already marked FAILED by then.
func (s *OCRService) ProcessEntityWithOCRTracking(ctx context.Context, subject models.EntityRef, userEmail, path string) (*ocr.Result, error) {
	engine := s.firstAvailable(ctx)
	if engine == nil {
		msg := noEngineMessage
		if _, err := s.attempts.RecordOCRAttempt(ctx, subject, userEmail, EngineNone, models.OCRStatusFailed, nil, &msg, nil); err != nil {
			s.logger.Warn("Failed to record OCR attempt", zap.String("subject", subject.String()), zap.Error(err))
		}
		ocrAttemptsTotal.WithLabelValues(EngineNone, string(models.OCRStatusFailed)).Inc()
		return ocr.Failure(msg), nil
	}

	attempt, err := s.attempts.RecordOCRAttempt(ctx, subject, userEmail, engine.Name(), models.OCRStatusInProgress, nil, nil, nil)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		s.logger.Warn("OCR attempt not recorded, user unknown",
			zap.String("subject", subject.String()),
			zap.String("email", userEmail),
		)
	}

	result, callErr := s.callEngine(ctx, engine, path)

	status := models.OCRStatusSuccess
	var extracted, errorMessage, raw *string
	switch {
	case callErr != nil:
		status = models.OCRStatusFailed
		msg := callErr.Error()
		errorMessage = &msg
	case !result.Success:
		status = models.OCRStatusFailed
		if result.Error() == "" {
			msg := fmt.Sprintf("%s returned no data", engine.Name())
			result.ErrorMessage = &msg
		}
		errorMessage = result.ErrorMessage
		raw = result.RawJSON
	default:
		extracted = result.RawJSON
		raw = result.RawJSON
	}
	ocrAttemptsTotal.WithLabelValues(engine.Name(), string(status)).Inc()

	if attempt != nil {
		// The engine outcome is already known; the update must land even if
		// the caller gave up meanwhile.
		updateCtx := context.WithoutCancel(ctx)
		if _, err := s.attempts.complete(updateCtx, attempt.ID, status, extracted, errorMessage, raw); err != nil {
			s.logger.Error("Failed to finalize OCR attempt",
				zap.Int64("attempt_id", attempt.ID),
				zap.String("status", string(status)),
				zap.Error(err),
			)
		}
	}

	if callErr != nil {
		return nil, callErr
	}
	return result, nil
}

// callEngine runs one engine call under the configured timeout. A panic in the
// engine is turned into an error.
func (s *OCRService) callEngine(ctx context.Context, engine ocr.Engine, path string) (*ocr.Result, error) {
	traceID := uuid.NewString()
	log := s.logger.With(
		zap.String("trace_id", traceID),
		zap.String("engine", engine.Name()),
		zap.String("file", path),
	)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type outcome struct {
		result *ocr.Result
		err    error
	}
	done := make(chan outcome, 1)

	start := time.Now()
	log.Debug("OCR engine call started")

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%s engine panicked: %v", engine.Name(), r)}
			}
		}()
		result, err := engine.ProcessFile(ctx, path)
		if err == nil && result == nil {
			err = fmt.Errorf("%s engine returned no result", engine.Name())
		}
		done <- outcome{result: result, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = fmt.Errorf("%s engine call aborted: %w", engine.Name(), ctx.Err())
	}

	elapsed := time.Since(start)
	ocrEngineDuration.WithLabelValues(engine.Name()).Observe(elapsed.Seconds())

	if out.err != nil {
		log.Warn("OCR engine call failed", zap.Duration("elapsed", elapsed), zap.Error(out.err))
		return nil, out.err
	}

	log.Info("OCR engine call completed",
		zap.Duration("elapsed", elapsed),
		zap.Bool("success", out.result.Success),
	)
	return out.result, nil
}
