package dto

type OCRStatistics struct {
	TotalAttempts      int            `json:"total_attempts"`
	SuccessfulAttempts int            `json:"successful_attempts"`
	FailedAttempts     int            `json:"failed_attempts"`
	InProgressAttempts int            `json:"in_progress_attempts"`
	PerEngineCounts    map[string]int `json:"per_engine_counts"`
}

type OCRAttemptResponse struct {
	ID               int64   `json:"id"`
	EntityType       string  `json:"entity_type"`
	EntityID         int64   `json:"entity_id"`
	AttemptDate      string  `json:"attempt_date"`
	OCREngine        string  `json:"ocr_engine"`
	ProcessingStatus string  `json:"processing_status"`
	ExtractedData    *string `json:"extracted_data,omitempty"`
	ErrorMessage     *string `json:"error_message,omitempty"`
}

type OCREnginesResponse struct {
	Available bool     `json:"available"`
	Engines   []string `json:"engines"`
}

type RevertibleResponse struct {
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
	Revertible bool   `json:"revertible"`
}
