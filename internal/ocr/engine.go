// Package ocr holds the engine contract consumed by the OCR services and the
// engines docflow ships with.
package ocr

import (
	"context"
	"time"
)

// Engine extracts structured data from a stored document.
type Engine interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	ProcessFile(ctx context.Context, path string) (*Result, error)
}

// Result is what an engine reports for one file.
type Result struct {
	Success           bool
	RawJSON           *string
	ExtractedAmount   *float64
	ExtractedDate     *time.Time
	ExtractedProvider *string
	ErrorMessage      *string
}

// Failure builds an unsuccessful result carrying msg.
func Failure(msg string) *Result {
	return &Result{Success: false, ErrorMessage: &msg}
}

// Error returns the error message or an empty string.
func (r *Result) Error() string {
	if r == nil || r.ErrorMessage == nil {
		return ""
	}
	return *r.ErrorMessage
}
