package service

import (
	"context"
	"errors"
	"testing"

	"docflow/internal/models"
)

func TestRecordOCRAttempt_UnknownUser(t *testing.T) {
	h := newHarness(t)
	subject := models.EntityRef{Type: models.EntityTypeIncomingFile, ID: 1}

	_, err := h.attemptSvc.RecordOCRAttempt(context.Background(), subject, "ghost@example.com", "tesseract",
		models.OCRStatusInProgress, nil, nil, nil)

	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if h.attempts.count() != 0 {
		t.Error("attempt persisted for unknown user")
	}
}

func TestUpdateAttemptStatus_PartialUpdate(t *testing.T) {
	h := newHarness(t)
	subject := models.EntityRef{Type: models.EntityTypeIncomingFile, ID: 1}
	attempt, err := h.attemptSvc.RecordOCRAttempt(context.Background(), subject, aliceEmail, "tesseract",
		models.OCRStatusInProgress, strPtr(`{"partial":true}`), nil, strPtr("raw"))
	if err != nil {
		t.Fatalf("RecordOCRAttempt() error: %v", err)
	}

	updated, err := h.attemptSvc.UpdateAttemptStatus(context.Background(), attempt.ID, models.OCRStatusFailed, nil, strPtr("timeout"))
	if err != nil {
		t.Fatalf("UpdateAttemptStatus() error: %v", err)
	}

	if updated.ProcessingStatus != models.OCRStatusFailed {
		t.Errorf("status = %s, want FAILED", updated.ProcessingStatus)
	}
	if updated.ExtractedData == nil || *updated.ExtractedData != `{"partial":true}` {
		t.Errorf("extracted data = %v, want prior value kept", updated.ExtractedData)
	}
	if updated.ErrorMessage == nil || *updated.ErrorMessage != "timeout" {
		t.Errorf("error message = %v", updated.ErrorMessage)
	}
	if updated.RawResponse == nil || *updated.RawResponse != "raw" {
		t.Errorf("raw response = %v, want prior value kept", updated.RawResponse)
	}
}

func TestUpdateAttemptStatus_Missing(t *testing.T) {
	h := newHarness(t)

	if _, err := h.attemptSvc.UpdateAttemptStatus(context.Background(), 404, models.OCRStatusSuccess, nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestOCRHistory_ScopedToUser(t *testing.T) {
	h := newHarness(t)
	subject := models.EntityRef{Type: models.EntityTypeIncomingFile, ID: 5}
	h.seedAttempt(t, subject, 1, "tesseract", models.OCRStatusFailed)
	h.seedAttempt(t, subject, 1, "gigachat", models.OCRStatusSuccess)
	h.seedAttempt(t, subject, 2, "pdf", models.OCRStatusSuccess)

	history, err := h.attemptSvc.OCRHistory(context.Background(), subject, aliceEmail)
	if err != nil {
		t.Fatalf("OCRHistory() error: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history = %d attempts, want 2", len(history))
	}

	history, err = h.attemptSvc.OCRHistory(context.Background(), subject, "ghost@example.com")
	if err != nil || len(history) != 0 {
		t.Errorf("unknown user history = %v, %v; want empty", history, err)
	}
}

func TestTransferOCRHistory_CopiesOwnedAttempts(t *testing.T) {
	h := newHarness(t)
	from := models.EntityRef{Type: models.EntityTypeIncomingFile, ID: 5}
	to := models.EntityRef{Type: models.EntityTypeBill, ID: 9}
	h.seedAttempt(t, from, 1, "tesseract", models.OCRStatusFailed)
	h.seedAttempt(t, from, 1, "gigachat", models.OCRStatusSuccess)
	h.seedAttempt(t, from, 2, "pdf", models.OCRStatusSuccess)

	ok, err := h.attemptSvc.TransferOCRHistory(context.Background(), from, to, aliceEmail)
	if err != nil || !ok {
		t.Fatalf("TransferOCRHistory() = %v, %v", ok, err)
	}

	copied := h.attempts.forSubject(to)
	if len(copied) != 2 {
		t.Fatalf("target has %d attempts, want 2", len(copied))
	}
	for _, a := range copied {
		if a.UserID != 1 {
			t.Errorf("copied attempt owned by %d", a.UserID)
		}
	}
	if n := len(h.attempts.forSubject(from)); n != 3 {
		t.Errorf("source has %d attempts, want 3 untouched", n)
	}

	ok, err = h.attemptSvc.TransferOCRHistory(context.Background(), from, to, "ghost@example.com")
	if err != nil || ok {
		t.Errorf("unknown user transfer = %v, %v; want false", ok, err)
	}
}

func TestDeleteOCRHistory_IgnoresOwner(t *testing.T) {
	h := newHarness(t)
	subject := models.EntityRef{Type: models.EntityTypeReceipt, ID: 3}
	other := models.EntityRef{Type: models.EntityTypeReceipt, ID: 4}
	h.seedAttempt(t, subject, 1, "tesseract", models.OCRStatusFailed)
	h.seedAttempt(t, subject, 2, "pdf", models.OCRStatusSuccess)
	h.seedAttempt(t, other, 1, "pdf", models.OCRStatusSuccess)

	deleted, err := h.attemptSvc.DeleteOCRHistory(context.Background(), subject)
	if err != nil {
		t.Fatalf("DeleteOCRHistory() error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if h.attempts.count() != 1 {
		t.Errorf("remaining = %d, want 1", h.attempts.count())
	}
}

func TestOCRStatistics(t *testing.T) {
	h := newHarness(t)
	a := models.EntityRef{Type: models.EntityTypeIncomingFile, ID: 1}
	b := models.EntityRef{Type: models.EntityTypeBill, ID: 2}
	h.seedAttempt(t, a, 1, "tesseract", models.OCRStatusFailed)
	h.seedAttempt(t, a, 1, "gigachat", models.OCRStatusSuccess)
	h.seedAttempt(t, b, 1, "gigachat", models.OCRStatusInProgress)
	h.seedAttempt(t, b, 2, "pdf", models.OCRStatusSuccess)

	stats, err := h.attemptSvc.OCRStatistics(context.Background(), aliceEmail)
	if err != nil {
		t.Fatalf("OCRStatistics() error: %v", err)
	}

	if stats.TotalAttempts != 3 || stats.SuccessfulAttempts != 1 || stats.FailedAttempts != 1 || stats.InProgressAttempts != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.PerEngineCounts["gigachat"] != 2 || stats.PerEngineCounts["tesseract"] != 1 || stats.PerEngineCounts["pdf"] != 0 {
		t.Errorf("per engine = %v", stats.PerEngineCounts)
	}
}
