package models

import "time"

type IncomingFile struct {
	ID         int64          `db:"id"`
	UserID     int64          `db:"user_id"`
	Filename   string         `db:"filename"`
	FilePath   string         `db:"file_path"`
	UploadDate time.Time      `db:"upload_date"`
	Checksum   *string        `db:"checksum"`
	Status     DocumentStatus `db:"status"`
	OCRData
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (f *IncomingFile) Ref() EntityRef {
	return EntityRef{Type: EntityTypeIncomingFile, ID: f.ID}
}
