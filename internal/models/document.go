package models

import "time"

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "PENDING"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusApproved   DocumentStatus = "APPROVED"
	StatusRejected   DocumentStatus = "REJECTED"
)

// OCRData is the extraction bundle shared by every document shape.
// It travels unchanged when a document is converted or reverted.
type OCRData struct {
	OCRRawJSON        *string    `db:"ocr_raw_json"`
	ExtractedAmount   *float64   `db:"extracted_amount"`
	ExtractedDate     *time.Time `db:"extracted_date"`
	ExtractedProvider *string    `db:"extracted_provider"`
	OCRProcessedAt    *time.Time `db:"ocr_processed_at"`
	OCRErrorMessage   *string    `db:"ocr_error_message"`
}

// Clear drops every extracted value and the processing metadata.
func (d *OCRData) Clear() {
	*d = OCRData{}
}
