package repository

import (
	"context"
	"time"

	"docflow/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var incomingFileColumns = []string{
	"id", "user_id", "filename", "file_path", "upload_date", "checksum", "status",
	"ocr_raw_json", "extracted_amount", "extracted_date", "extracted_provider", "ocr_processed_at", "ocr_error_message",
	"created_at", "updated_at",
}

type IncomingFileRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewIncomingFileRepository(db *pgxpool.Pool, logger *zap.Logger) *IncomingFileRepository {
	return &IncomingFileRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts the file when it has no id yet and updates it otherwise.
func (r *IncomingFileRepository) Save(ctx context.Context, file *models.IncomingFile) error {
	now := time.Now()
	file.UpdatedAt = now

	if file.ID == 0 {
		file.CreatedAt = now
		if file.UploadDate.IsZero() {
			file.UploadDate = now
		}

		query := squirrel.Insert("incoming_files").
			Columns(incomingFileColumns[1:]...).
			Values(file.UserID, file.Filename, file.FilePath, file.UploadDate, file.Checksum, file.Status,
				file.OCRRawJSON, file.ExtractedAmount, file.ExtractedDate, file.ExtractedProvider, file.OCRProcessedAt, file.OCRErrorMessage,
				file.CreatedAt, file.UpdatedAt).
			Suffix("RETURNING id").
			PlaceholderFormat(squirrel.Dollar)

		sql, args, err := query.ToSql()
		if err != nil {
			return err
		}
		return conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&file.ID)
	}

	query := squirrel.Update("incoming_files").
		Set("filename", file.Filename).
		Set("file_path", file.FilePath).
		Set("upload_date", file.UploadDate).
		Set("checksum", file.Checksum).
		Set("status", file.Status).
		Set("ocr_raw_json", file.OCRRawJSON).
		Set("extracted_amount", file.ExtractedAmount).
		Set("extracted_date", file.ExtractedDate).
		Set("extracted_provider", file.ExtractedProvider).
		Set("ocr_processed_at", file.OCRProcessedAt).
		Set("ocr_error_message", file.OCRErrorMessage).
		Set("updated_at", file.UpdatedAt).
		Where(squirrel.Eq{"id": file.ID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := conn(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *IncomingFileRepository) GetByID(ctx context.Context, id int64) (*models.IncomingFile, error) {
	query := squirrel.Select(incomingFileColumns...).
		From("incoming_files").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	file, err := scanIncomingFile(conn(ctx, r.db).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return file, nil
}

func (r *IncomingFileRepository) ListByStatus(ctx context.Context, status models.DocumentStatus) ([]*models.IncomingFile, error) {
	return r.list(ctx, squirrel.Eq{"status": status})
}

func (r *IncomingFileRepository) ListByUserIDAndStatus(ctx context.Context, userID int64, status models.DocumentStatus) ([]*models.IncomingFile, error) {
	return r.list(ctx, squirrel.Eq{"user_id": userID, "status": status})
}

func (r *IncomingFileRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("incoming_files").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := conn(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *IncomingFileRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*models.IncomingFile, error) {
	query := squirrel.Select(incomingFileColumns...).
		From("incoming_files").
		Where(where).
		OrderBy("upload_date DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.IncomingFile
	for rows.Next() {
		file, err := scanIncomingFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

func scanIncomingFile(row pgx.Row) (*models.IncomingFile, error) {
	var f models.IncomingFile
	err := row.Scan(
		&f.ID, &f.UserID, &f.Filename, &f.FilePath, &f.UploadDate, &f.Checksum, &f.Status,
		&f.OCRRawJSON, &f.ExtractedAmount, &f.ExtractedDate, &f.ExtractedProvider, &f.OCRProcessedAt, &f.OCRErrorMessage,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
