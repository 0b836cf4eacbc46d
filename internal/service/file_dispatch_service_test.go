package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"docflow/internal/models"
)

func readyFile(userID int64, filename string) *models.IncomingFile {
	now := time.Now()
	return &models.IncomingFile{
		UserID:     userID,
		Filename:   filename,
		FilePath:   "2024/" + filename,
		UploadDate: now,
		Status:     models.StatusApproved,
		OCRData: models.OCRData{
			OCRRawJSON:     strPtr(`{"engine":"tesseract"}`),
			OCRProcessedAt: &now,
		},
	}
}

func TestIsFileReadyForDispatch(t *testing.T) {
	s := &FileDispatchService{}

	tests := []struct {
		name   string
		mutate func(f *models.IncomingFile)
		want   bool
	}{
		{"ready", func(*models.IncomingFile) {}, true},
		{"pending", func(f *models.IncomingFile) { f.Status = models.StatusPending }, false},
		{"rejected", func(f *models.IncomingFile) { f.Status = models.StatusRejected }, false},
		{"no raw json", func(f *models.IncomingFile) { f.OCRRawJSON = nil }, false},
		{"not processed", func(f *models.IncomingFile) { f.OCRProcessedAt = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := readyFile(1, "r.jpg")
			tt.mutate(f)
			if got := s.IsFileReadyForDispatch(f); got != tt.want {
				t.Errorf("IsFileReadyForDispatch() = %v, want %v", got, tt.want)
			}
		})
	}
	if s.IsFileReadyForDispatch(nil) {
		t.Error("nil file reported ready")
	}
}

func TestDispatchIncomingFile_RefusesUnready(t *testing.T) {
	h := newHarness(t)
	file := readyFile(1, "r.jpg")
	file.OCRRawJSON = nil
	h.files.insert(t, file)

	bill, err := h.dispatch.DispatchIncomingFile(context.Background(), file)

	if !errors.Is(err, ErrNotReadyForDispatch) || bill != nil {
		t.Fatalf("got %v, %v; want nil, ErrNotReadyForDispatch", bill, err)
	}
	if h.bills.saves != 0 {
		t.Errorf("bill saves = %d, want 0", h.bills.saves)
	}
}

func TestDispatchIncomingFile(t *testing.T) {
	h := newHarness(t)
	file := readyFile(1, "r.jpg")
	file.Checksum = strPtr("abc")
	h.files.insert(t, file)
	h.seedAttempt(t, file.Ref(), 1, "tesseract", models.OCRStatusSuccess)

	bill, err := h.dispatch.DispatchIncomingFile(context.Background(), file)
	if err != nil {
		t.Fatalf("DispatchIncomingFile() error: %v", err)
	}

	if bill.Status != models.StatusApproved {
		t.Errorf("status = %s, want APPROVED", bill.Status)
	}
	if bill.UserID != 1 || bill.Checksum == nil || *bill.Checksum != "abc" {
		t.Errorf("bill = %+v", bill)
	}
	if bill.OriginalIncomingFileID == nil || *bill.OriginalIncomingFileID != file.ID {
		t.Error("bill lost its incoming-file origin")
	}
	if h.files.count() != 0 {
		t.Error("dispatched file still present")
	}
	if n := len(h.attempts.forSubject(bill.Ref())); n != 1 {
		t.Errorf("bill history = %d attempts, want 1", n)
	}
}

func TestDispatchAllReadyFiles_IsolatesFailures(t *testing.T) {
	h := newHarness(t)
	first := readyFile(1, "a.jpg")
	broken := readyFile(1, "b.jpg")
	unready := readyFile(2, "c.jpg")
	unready.OCRProcessedAt = nil
	last := readyFile(2, "d.jpg")
	for _, f := range []*models.IncomingFile{first, broken, unready, last} {
		h.files.insert(t, f)
	}
	pending := h.seedFile(t, 1, "e.jpg")
	h.attempts.copyErrFor[broken.ID] = errBoom

	bills, err := h.dispatch.DispatchAllReadyFiles(context.Background())
	if err != nil {
		t.Fatalf("DispatchAllReadyFiles() error: %v", err)
	}

	if len(bills) != 2 {
		t.Fatalf("dispatched %d bills, want 2", len(bills))
	}
	if *bills[0].OriginalIncomingFileID != first.ID || *bills[1].OriginalIncomingFileID != last.ID {
		t.Errorf("dispatched origins = %d, %d", *bills[0].OriginalIncomingFileID, *bills[1].OriginalIncomingFileID)
	}
	for _, f := range []*models.IncomingFile{broken, unready, pending} {
		if _, err := h.files.GetByID(context.Background(), f.ID); err != nil {
			t.Errorf("file %s should remain: %v", f.Filename, err)
		}
	}
}

func TestDispatchStatistics(t *testing.T) {
	h := newHarness(t)
	h.files.insert(t, readyFile(1, "a.jpg"))
	h.files.insert(t, readyFile(2, "b.jpg"))
	needsReview := readyFile(1, "c.jpg")
	needsReview.OCRRawJSON = nil
	h.files.insert(t, needsReview)
	h.seedFile(t, 1, "pending.jpg")

	stats, err := h.dispatch.DispatchStatistics(context.Background())
	if err != nil {
		t.Fatalf("DispatchStatistics() error: %v", err)
	}

	if stats.TotalApprovedFiles != 3 || stats.ReadyForDispatch != 2 || stats.NeedsManualReview != 1 {
		t.Errorf("stats = %+v, want 3/2/1", stats)
	}
}

func TestDispatchUserReadyFiles_OnlyCallersFiles(t *testing.T) {
	h := newHarness(t)
	alices := readyFile(1, "a.jpg")
	bobs := readyFile(2, "b.jpg")
	h.files.insert(t, alices)
	h.files.insert(t, bobs)

	bills, err := h.dispatch.DispatchUserReadyFiles(context.Background(), aliceEmail)
	if err != nil {
		t.Fatalf("DispatchUserReadyFiles() error: %v", err)
	}

	if len(bills) != 1 || bills[0].UserID != 1 {
		t.Fatalf("dispatched %+v, want one bill for alice", bills)
	}
	if _, err := h.files.GetByID(context.Background(), bobs.ID); err != nil {
		t.Errorf("bob's file was dispatched: %v", err)
	}
	if _, err := h.files.GetByID(context.Background(), alices.ID); err == nil {
		t.Error("alice's file still present")
	}
}

func TestDispatchUserReadyFiles_UnknownUser(t *testing.T) {
	h := newHarness(t)
	h.files.insert(t, readyFile(1, "a.jpg"))

	bills, err := h.dispatch.DispatchUserReadyFiles(context.Background(), "mallory@example.com")
	if err != nil {
		t.Fatalf("DispatchUserReadyFiles() error: %v", err)
	}
	if len(bills) != 0 || h.files.count() != 1 {
		t.Errorf("unknown user dispatched %d bills", len(bills))
	}
}

func TestUserDispatchStatistics(t *testing.T) {
	h := newHarness(t)
	h.files.insert(t, readyFile(1, "a.jpg"))
	h.files.insert(t, readyFile(2, "b.jpg"))
	h.files.insert(t, readyFile(2, "c.jpg"))
	needsReview := readyFile(1, "d.jpg")
	needsReview.OCRRawJSON = nil
	h.files.insert(t, needsReview)

	stats, err := h.dispatch.UserDispatchStatistics(context.Background(), aliceEmail)
	if err != nil {
		t.Fatalf("UserDispatchStatistics() error: %v", err)
	}
	if stats.TotalApprovedFiles != 2 || stats.ReadyForDispatch != 1 || stats.NeedsManualReview != 1 {
		t.Errorf("stats = %+v, want 2/1/1", stats)
	}

	stats, err = h.dispatch.UserDispatchStatistics(context.Background(), "mallory@example.com")
	if err != nil || stats.TotalApprovedFiles != 0 {
		t.Errorf("unknown user stats = %+v, %v", stats, err)
	}
}
