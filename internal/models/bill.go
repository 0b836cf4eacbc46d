package models

import "time"

type Bill struct {
	ID         int64          `db:"id"`
	UserID     int64          `db:"user_id"`
	Filename   *string        `db:"filename"`
	FilePath   *string        `db:"file_path"`
	UploadDate *time.Time     `db:"upload_date"`
	Checksum   *string        `db:"checksum"`
	Status     DocumentStatus `db:"status"`
	OCRData
	// OriginalIncomingFileID is a lookup-only backlink to the file this bill
	// was converted from. The referenced row no longer exists after conversion.
	OriginalIncomingFileID *int64    `db:"original_incoming_file_id"`
	CreatedAt              time.Time `db:"created_at"`
	UpdatedAt              time.Time `db:"updated_at"`
}

func (b *Bill) Ref() EntityRef {
	return EntityRef{Type: EntityTypeBill, ID: b.ID}
}
