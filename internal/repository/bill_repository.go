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

var billColumns = []string{
	"id", "user_id", "filename", "file_path", "upload_date", "checksum", "status",
	"ocr_raw_json", "extracted_amount", "extracted_date", "extracted_provider", "ocr_processed_at", "ocr_error_message",
	"original_incoming_file_id", "created_at", "updated_at",
}

type BillRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBillRepository(db *pgxpool.Pool, logger *zap.Logger) *BillRepository {
	return &BillRepository{
		db:     db,
		logger: logger,
	}
}

func (r *BillRepository) Save(ctx context.Context, bill *models.Bill) error {
	now := time.Now()
	bill.UpdatedAt = now

	if bill.ID == 0 {
		bill.CreatedAt = now

		query := squirrel.Insert("bills").
			Columns(billColumns[1:]...).
			Values(bill.UserID, bill.Filename, bill.FilePath, bill.UploadDate, bill.Checksum, bill.Status,
				bill.OCRRawJSON, bill.ExtractedAmount, bill.ExtractedDate, bill.ExtractedProvider, bill.OCRProcessedAt, bill.OCRErrorMessage,
				bill.OriginalIncomingFileID, bill.CreatedAt, bill.UpdatedAt).
			Suffix("RETURNING id").
			PlaceholderFormat(squirrel.Dollar)

		sql, args, err := query.ToSql()
		if err != nil {
			return err
		}
		return conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&bill.ID)
	}

	query := squirrel.Update("bills").
		Set("filename", bill.Filename).
		Set("file_path", bill.FilePath).
		Set("upload_date", bill.UploadDate).
		Set("checksum", bill.Checksum).
		Set("status", bill.Status).
		Set("ocr_raw_json", bill.OCRRawJSON).
		Set("extracted_amount", bill.ExtractedAmount).
		Set("extracted_date", bill.ExtractedDate).
		Set("extracted_provider", bill.ExtractedProvider).
		Set("ocr_processed_at", bill.OCRProcessedAt).
		Set("ocr_error_message", bill.OCRErrorMessage).
		Set("original_incoming_file_id", bill.OriginalIncomingFileID).
		Set("updated_at", bill.UpdatedAt).
		Where(squirrel.Eq{"id": bill.ID}).
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

func (r *BillRepository) GetByID(ctx context.Context, id int64) (*models.Bill, error) {
	query := squirrel.Select(billColumns...).
		From("bills").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	bill, err := scanBill(conn(ctx, r.db).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return bill, nil
}

func (r *BillRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("bills").
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

func scanBill(row pgx.Row) (*models.Bill, error) {
	var b models.Bill
	err := row.Scan(
		&b.ID, &b.UserID, &b.Filename, &b.FilePath, &b.UploadDate, &b.Checksum, &b.Status,
		&b.OCRRawJSON, &b.ExtractedAmount, &b.ExtractedDate, &b.ExtractedProvider, &b.OCRProcessedAt, &b.OCRErrorMessage,
		&b.OriginalIncomingFileID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
