package models

import "time"

type OCRProcessingStatus string

const (
	OCRStatusInProgress OCRProcessingStatus = "IN_PROGRESS"
	OCRStatusSuccess    OCRProcessingStatus = "SUCCESS"
	OCRStatusFailed     OCRProcessingStatus = "FAILED"
)

// OCRAttempt is one audited extraction trial. Rows are append-only apart from
// the single status transition out of IN_PROGRESS.
type OCRAttempt struct {
	ID               int64               `db:"id"`
	EntityType       EntityType          `db:"entity_type"`
	EntityID         int64               `db:"entity_id"`
	UserID           int64               `db:"user_id"`
	AttemptDate      time.Time           `db:"attempt_date"`
	OCREngine        string              `db:"ocr_engine"`
	ProcessingStatus OCRProcessingStatus `db:"processing_status"`
	ExtractedData    *string             `db:"extracted_data"`
	ErrorMessage     *string             `db:"error_message"`
	RawResponse      *string             `db:"raw_response"`
	CreatedAt        time.Time           `db:"created_at"`
}

func (a *OCRAttempt) Subject() EntityRef {
	return EntityRef{Type: a.EntityType, ID: a.EntityID}
}
