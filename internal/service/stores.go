package service

import (
	"context"

	"docflow/internal/models"
)

// The interfaces below are the persistence contracts the services rely on.
// internal/repository provides the PostgreSQL implementations.

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type IncomingFileStore interface {
	GetByID(ctx context.Context, id int64) (*models.IncomingFile, error)
	ListByStatus(ctx context.Context, status models.DocumentStatus) ([]*models.IncomingFile, error)
	ListByUserIDAndStatus(ctx context.Context, userID int64, status models.DocumentStatus) ([]*models.IncomingFile, error)
	Save(ctx context.Context, file *models.IncomingFile) error
	Delete(ctx context.Context, id int64) error
}

type BillStore interface {
	GetByID(ctx context.Context, id int64) (*models.Bill, error)
	Save(ctx context.Context, bill *models.Bill) error
	Delete(ctx context.Context, id int64) error
}

type ReceiptStore interface {
	GetByID(ctx context.Context, id int64) (*models.Receipt, error)
	Save(ctx context.Context, receipt *models.Receipt) error
	Delete(ctx context.Context, id int64) error
}

type OCRAttemptStore interface {
	Create(ctx context.Context, attempt *models.OCRAttempt) error
	GetByID(ctx context.Context, id int64) (*models.OCRAttempt, error)
	UpdateStatus(ctx context.Context, attempt *models.OCRAttempt) error
	ListBySubject(ctx context.Context, subject models.EntityRef, userID int64) ([]*models.OCRAttempt, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.OCRAttempt, error)
	CopySubject(ctx context.Context, from, to models.EntityRef, userID int64) (int64, error)
	DeleteBySubject(ctx context.Context, subject models.EntityRef) (int64, error)
}

// Transactor runs fn atomically. Stores used with the ctx passed to fn take
// part in the same transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
