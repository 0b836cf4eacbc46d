package models

import "time"

type Receipt struct {
	ID         int64          `db:"id"`
	UserID     int64          `db:"user_id"`
	Filename   *string        `db:"filename"`
	FilePath   *string        `db:"file_path"`
	UploadDate *time.Time     `db:"upload_date"`
	Checksum   *string        `db:"checksum"`
	Status     DocumentStatus `db:"status"`
	OCRData
	BillID    *int64    `db:"bill_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *Receipt) Ref() EntityRef {
	return EntityRef{Type: EntityTypeReceipt, ID: r.ID}
}

// HasFileMetadata reports whether the receipt still knows where its file lives.
func (r *Receipt) HasFileMetadata() bool {
	return r.Filename != nil && r.FilePath != nil
}
