package dto

// DocumentResponse is the shared JSON shape of incoming files, bills and receipts.
type DocumentResponse struct {
	ID                     int64    `json:"id"`
	EntityType             string   `json:"entity_type"`
	Filename               *string  `json:"filename,omitempty"`
	FilePath               *string  `json:"file_path,omitempty"`
	UploadDate             *string  `json:"upload_date,omitempty"`
	Checksum               *string  `json:"checksum,omitempty"`
	Status                 string   `json:"status"`
	ExtractedAmount        *float64 `json:"extracted_amount,omitempty"`
	ExtractedDate          *string  `json:"extracted_date,omitempty"`
	ExtractedProvider      *string  `json:"extracted_provider,omitempty"`
	OCRProcessedAt         *string  `json:"ocr_processed_at,omitempty"`
	OCRErrorMessage        *string  `json:"ocr_error_message,omitempty"`
	OriginalIncomingFileID *int64   `json:"original_incoming_file_id,omitempty"`
	BillID                 *int64   `json:"bill_id,omitempty"`
}
