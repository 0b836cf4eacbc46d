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

var receiptColumns = []string{
	"id", "user_id", "filename", "file_path", "upload_date", "checksum", "status",
	"ocr_raw_json", "extracted_amount", "extracted_date", "extracted_provider", "ocr_processed_at", "ocr_error_message",
	"bill_id", "created_at", "updated_at",
}

type ReceiptRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReceiptRepository(db *pgxpool.Pool, logger *zap.Logger) *ReceiptRepository {
	return &ReceiptRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ReceiptRepository) Save(ctx context.Context, receipt *models.Receipt) error {
	now := time.Now()
	receipt.UpdatedAt = now

	if receipt.ID == 0 {
		receipt.CreatedAt = now

		query := squirrel.Insert("receipts").
			Columns(receiptColumns[1:]...).
			Values(receipt.UserID, receipt.Filename, receipt.FilePath, receipt.UploadDate, receipt.Checksum, receipt.Status,
				receipt.OCRRawJSON, receipt.ExtractedAmount, receipt.ExtractedDate, receipt.ExtractedProvider, receipt.OCRProcessedAt, receipt.OCRErrorMessage,
				receipt.BillID, receipt.CreatedAt, receipt.UpdatedAt).
			Suffix("RETURNING id").
			PlaceholderFormat(squirrel.Dollar)

		sql, args, err := query.ToSql()
		if err != nil {
			return err
		}
		return conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&receipt.ID)
	}

	query := squirrel.Update("receipts").
		Set("filename", receipt.Filename).
		Set("file_path", receipt.FilePath).
		Set("upload_date", receipt.UploadDate).
		Set("checksum", receipt.Checksum).
		Set("status", receipt.Status).
		Set("ocr_raw_json", receipt.OCRRawJSON).
		Set("extracted_amount", receipt.ExtractedAmount).
		Set("extracted_date", receipt.ExtractedDate).
		Set("extracted_provider", receipt.ExtractedProvider).
		Set("ocr_processed_at", receipt.OCRProcessedAt).
		Set("ocr_error_message", receipt.OCRErrorMessage).
		Set("bill_id", receipt.BillID).
		Set("updated_at", receipt.UpdatedAt).
		Where(squirrel.Eq{"id": receipt.ID}).
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

func (r *ReceiptRepository) GetByID(ctx context.Context, id int64) (*models.Receipt, error) {
	query := squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	receipt, err := scanReceipt(conn(ctx, r.db).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return receipt, nil
}

func (r *ReceiptRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("receipts").
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

func scanReceipt(row pgx.Row) (*models.Receipt, error) {
	var rc models.Receipt
	err := row.Scan(
		&rc.ID, &rc.UserID, &rc.Filename, &rc.FilePath, &rc.UploadDate, &rc.Checksum, &rc.Status,
		&rc.OCRRawJSON, &rc.ExtractedAmount, &rc.ExtractedDate, &rc.ExtractedProvider, &rc.OCRProcessedAt, &rc.OCRErrorMessage,
		&rc.BillID, &rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}
