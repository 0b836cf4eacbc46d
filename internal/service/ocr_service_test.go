package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"docflow/internal/models"
	"docflow/internal/ocr"
)

func TestProcessFileWithFallback_SkipsUnavailableAndFailingEngines(t *testing.T) {
	a := &fakeEngine{name: "a", available: false, result: successResult(1, "A")}
	b := &fakeEngine{name: "b", available: true, err: errBoom}
	c := &fakeEngine{name: "c", available: true, result: successResult(42.5, "C")}
	h := newHarness(t, a, b, c)

	result := h.ocrSvc.ProcessFileWithFallback(context.Background(), "r.jpg")

	if !result.Success {
		t.Fatalf("Success = false, error %q", result.Error())
	}
	if *result.ExtractedProvider != "C" {
		t.Errorf("provider = %q, want C", *result.ExtractedProvider)
	}
	if a.calls != 0 {
		t.Errorf("unavailable engine called %d times", a.calls)
	}
	if b.calls != 1 || c.calls != 1 {
		t.Errorf("calls b=%d c=%d, want 1 and 1", b.calls, c.calls)
	}
	if h.attempts.count() != 0 {
		t.Errorf("fallback path recorded %d attempts", h.attempts.count())
	}
}

func TestProcessFileWithFallback_ReportsLastError(t *testing.T) {
	first := &fakeEngine{name: "first", available: true, err: errBoom}
	second := &fakeEngine{name: "second", available: true, result: ocr.Failure("blurry image")}
	h := newHarness(t, first, second)

	result := h.ocrSvc.ProcessFileWithFallback(context.Background(), "r.jpg")

	if result.Success {
		t.Fatal("Success = true, want false")
	}
	if result.Error() != "blurry image" {
		t.Errorf("error = %q, want %q", result.Error(), "blurry image")
	}
}

func TestProcessFileWithFallback_NoEngines(t *testing.T) {
	h := newHarness(t)

	result := h.ocrSvc.ProcessFileWithFallback(context.Background(), "r.jpg")

	if result.Success || result.Error() == "" {
		t.Errorf("got %+v, want failure with message", result)
	}
}

func TestAvailableEngineNames_KeepsPriorityOrder(t *testing.T) {
	h := newHarness(t,
		&fakeEngine{name: "pdf", available: true},
		&fakeEngine{name: "tesseract", available: false},
		&fakeEngine{name: "gigachat", available: true},
	)

	names := h.ocrSvc.AvailableEngineNames(context.Background())

	if strings.Join(names, ",") != "pdf,gigachat" {
		t.Errorf("names = %v, want [pdf gigachat]", names)
	}
	if !h.ocrSvc.HasAvailableEngines(context.Background()) {
		t.Error("HasAvailableEngines = false")
	}
}

func TestProcessEntityWithOCRTracking_ClosesAttempt(t *testing.T) {
	tests := []struct {
		name       string
		engine     *fakeEngine
		wantErr    bool
		wantStatus models.OCRProcessingStatus
	}{
		{
			name:       "success",
			engine:     &fakeEngine{name: "primary", available: true, result: successResult(10, "Shop")},
			wantStatus: models.OCRStatusSuccess,
		},
		{
			name:       "unsuccessful result",
			engine:     &fakeEngine{name: "primary", available: true, result: ocr.Failure("nothing found")},
			wantStatus: models.OCRStatusFailed,
		},
		{
			name:       "unsuccessful result without message",
			engine:     &fakeEngine{name: "primary", available: true, result: &ocr.Result{Success: false}},
			wantStatus: models.OCRStatusFailed,
		},
		{
			name:       "engine error",
			engine:     &fakeEngine{name: "primary", available: true, err: errBoom},
			wantErr:    true,
			wantStatus: models.OCRStatusFailed,
		},
		{
			name:       "engine panic",
			engine:     &fakeEngine{name: "primary", available: true, panicMsg: "nil map"},
			wantErr:    true,
			wantStatus: models.OCRStatusFailed,
		},
		{
			name:       "nil result",
			engine:     &fakeEngine{name: "primary", available: true},
			wantErr:    true,
			wantStatus: models.OCRStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backup := &fakeEngine{name: "backup", available: true, result: successResult(99, "Backup")}
			h := newHarness(t, tt.engine, backup)
			subject := models.EntityRef{Type: models.EntityTypeIncomingFile, ID: 7}

			_, err := h.ocrSvc.ProcessEntityWithOCRTracking(context.Background(), subject, aliceEmail, "r.jpg")

			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if backup.calls != 0 {
				t.Error("tracked processing fell back to the second engine")
			}

			attempts := h.attempts.forSubject(subject)
			if len(attempts) != 1 {
				t.Fatalf("recorded %d attempts, want 1", len(attempts))
			}
			got := attempts[0]
			if got.ProcessingStatus != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.ProcessingStatus, tt.wantStatus)
			}
			if got.OCREngine != "primary" || got.UserID != 1 {
				t.Errorf("attempt engine=%q user=%d", got.OCREngine, got.UserID)
			}
			if tt.wantStatus == models.OCRStatusFailed && got.ErrorMessage == nil {
				t.Error("failed attempt has no error message")
			}
		})
	}
}

func TestProcessEntityWithOCRTracking_NoEngineRecordsNone(t *testing.T) {
	h := newHarness(t, &fakeEngine{name: "off", available: false})
	subject := models.EntityRef{Type: models.EntityTypeIncomingFile, ID: 3}

	result, err := h.ocrSvc.ProcessEntityWithOCRTracking(context.Background(), subject, aliceEmail, "r.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Error("Success = true, want false")
	}

	attempts := h.attempts.forSubject(subject)
	if len(attempts) != 1 {
		t.Fatalf("recorded %d attempts, want 1", len(attempts))
	}
	if attempts[0].OCREngine != EngineNone || attempts[0].ProcessingStatus != models.OCRStatusFailed {
		t.Errorf("attempt = %s/%s, want NONE/FAILED", attempts[0].OCREngine, attempts[0].ProcessingStatus)
	}
}

func TestProcessEntityWithOCRTracking_UnknownUserStillProcesses(t *testing.T) {
	engine := &fakeEngine{name: "primary", available: true, result: successResult(5, "Kiosk")}
	h := newHarness(t, engine)

	result, err := h.ocrSvc.ProcessEntityWithOCRTracking(context.Background(),
		models.EntityRef{Type: models.EntityTypeBill, ID: 1}, "ghost@example.com", "r.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("Success = false")
	}
	if h.attempts.count() != 0 {
		t.Errorf("recorded %d attempts for an unknown user", h.attempts.count())
	}
}

func TestProcessEntityWithOCRTracking_Timeout(t *testing.T) {
	engine := &fakeEngine{name: "slow", available: true, delay: time.Minute, result: successResult(1, "x")}
	h := newHarness(t, engine)
	h.ocrSvc.timeout = 20 * time.Millisecond
	subject := models.EntityRef{Type: models.EntityTypeIncomingFile, ID: 9}

	_, err := h.ocrSvc.ProcessEntityWithOCRTracking(context.Background(), subject, aliceEmail, "r.jpg")

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	assertNoOpenAttempts(t, h.attempts)
}
