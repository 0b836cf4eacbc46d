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

var ocrAttemptColumns = []string{
	"id", "entity_type", "entity_id", "user_id", "attempt_date", "ocr_engine", "processing_status",
	"extracted_data", "error_message", "raw_response", "created_at",
}

type OCRAttemptRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewOCRAttemptRepository(db *pgxpool.Pool, logger *zap.Logger) *OCRAttemptRepository {
	return &OCRAttemptRepository{
		db:     db,
		logger: logger,
	}
}

func (r *OCRAttemptRepository) Create(ctx context.Context, attempt *models.OCRAttempt) error {
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	if attempt.AttemptDate.IsZero() {
		attempt.AttemptDate = attempt.CreatedAt
	}

	query := squirrel.Insert("ocr_attempts").
		Columns(ocrAttemptColumns[1:]...).
		Values(attempt.EntityType, attempt.EntityID, attempt.UserID, attempt.AttemptDate, attempt.OCREngine, attempt.ProcessingStatus,
			attempt.ExtractedData, attempt.ErrorMessage, attempt.RawResponse, attempt.CreatedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	return conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&attempt.ID)
}

func (r *OCRAttemptRepository) GetByID(ctx context.Context, id int64) (*models.OCRAttempt, error) {
	query := squirrel.Select(ocrAttemptColumns...).
		From("ocr_attempts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	attempt, err := scanOCRAttempt(conn(ctx, r.db).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return attempt, nil
}

// UpdateStatus writes the mutable part of an attempt: its outcome.
func (r *OCRAttemptRepository) UpdateStatus(ctx context.Context, attempt *models.OCRAttempt) error {
	query := squirrel.Update("ocr_attempts").
		Set("processing_status", attempt.ProcessingStatus).
		Set("extracted_data", attempt.ExtractedData).
		Set("error_message", attempt.ErrorMessage).
		Set("raw_response", attempt.RawResponse).
		Where(squirrel.Eq{"id": attempt.ID}).
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

// ListBySubject returns the attempts of one subject owned by userID, oldest first.
func (r *OCRAttemptRepository) ListBySubject(ctx context.Context, subject models.EntityRef, userID int64) ([]*models.OCRAttempt, error) {
	return r.list(ctx, squirrel.Eq{
		"entity_type": subject.Type,
		"entity_id":   subject.ID,
		"user_id":     userID,
	})
}

func (r *OCRAttemptRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.OCRAttempt, error) {
	return r.list(ctx, squirrel.Eq{"user_id": userID})
}

// CopySubject duplicates every attempt of from owned by userID under the to
// subject. Source rows are left untouched.
func (r *OCRAttemptRepository) CopySubject(ctx context.Context, from, to models.EntityRef, userID int64) (int64, error) {
	source := squirrel.Select().
		Column("?::text", string(to.Type)).
		Column("?::bigint", to.ID).
		Columns("user_id", "attempt_date", "ocr_engine", "processing_status",
			"extracted_data", "error_message", "raw_response", "created_at").
		From("ocr_attempts").
		Where(squirrel.Eq{
			"entity_type": from.Type,
			"entity_id":   from.ID,
			"user_id":     userID,
		}).
		OrderBy("id")

	query := squirrel.Insert("ocr_attempts").
		Columns(ocrAttemptColumns[1:]...).
		Select(source).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := conn(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *OCRAttemptRepository) DeleteBySubject(ctx context.Context, subject models.EntityRef) (int64, error) {
	query := squirrel.Delete("ocr_attempts").
		Where(squirrel.Eq{
			"entity_type": subject.Type,
			"entity_id":   subject.ID,
		}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := conn(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *OCRAttemptRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*models.OCRAttempt, error) {
	query := squirrel.Select(ocrAttemptColumns...).
		From("ocr_attempts").
		Where(where).
		OrderBy("attempt_date ASC", "id ASC").
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

	var attempts []*models.OCRAttempt
	for rows.Next() {
		attempt, err := scanOCRAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}

	return attempts, rows.Err()
}

func scanOCRAttempt(row pgx.Row) (*models.OCRAttempt, error) {
	var a models.OCRAttempt
	err := row.Scan(
		&a.ID, &a.EntityType, &a.EntityID, &a.UserID, &a.AttemptDate, &a.OCREngine, &a.ProcessingStatus,
		&a.ExtractedData, &a.ErrorMessage, &a.RawResponse, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
