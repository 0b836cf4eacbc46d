package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docflow/internal/models"
	"docflow/internal/repository"

	"go.uber.org/zap"
)

// EntityConversionService reshapes a document between IncomingFile, Bill and
// Receipt. Every conversion saves the target, copies the OCR history and
// deletes the source in one transaction.
type EntityConversionService struct {
	tx       Transactor
	files    IncomingFileStore
	bills    BillStore
	receipts ReceiptStore
	attempts *OCRAttemptService
	users    *UserResolver
	logger   *zap.Logger
}

func NewEntityConversionService(
	tx Transactor,
	files IncomingFileStore,
	bills BillStore,
	receipts ReceiptStore,
	attempts *OCRAttemptService,
	users *UserResolver,
	logger *zap.Logger,
) *EntityConversionService {
	return &EntityConversionService{
		tx:       tx,
		files:    files,
		bills:    bills,
		receipts: receipts,
		attempts: attempts,
		users:    users,
		logger:   logger,
	}
}

func (s *EntityConversionService) ConvertIncomingFileToBill(ctx context.Context, fileID int64, userEmail string) (*models.Bill, error) {
	file, err := s.ownedIncomingFile(ctx, fileID, userEmail)
	if err != nil {
		return nil, err
	}

	bill := billFromIncomingFile(file, models.StatusPending)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.bills.Save(ctx, bill); err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}
		return s.finish(ctx, file.Ref(), bill.Ref(), file.UserID, s.files.Delete)
	})
	if err != nil {
		return nil, err
	}

	s.converted(file.Ref(), bill.Ref())
	return bill, nil
}

func (s *EntityConversionService) ConvertIncomingFileToReceipt(ctx context.Context, fileID int64, userEmail string) (*models.Receipt, error) {
	file, err := s.ownedIncomingFile(ctx, fileID, userEmail)
	if err != nil {
		return nil, err
	}

	filename, path := file.Filename, file.FilePath
	uploadDate := file.UploadDate
	receipt := &models.Receipt{
		UserID:     file.UserID,
		Filename:   &filename,
		FilePath:   &path,
		UploadDate: &uploadDate,
		Checksum:   file.Checksum,
		Status:     models.StatusPending,
		OCRData:    file.OCRData,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.receipts.Save(ctx, receipt); err != nil {
			return fmt.Errorf("failed to save receipt: %w", err)
		}
		return s.finish(ctx, file.Ref(), receipt.Ref(), file.UserID, s.files.Delete)
	})
	if err != nil {
		return nil, err
	}

	s.converted(file.Ref(), receipt.Ref())
	return receipt, nil
}

func (s *EntityConversionService) RevertBillToIncomingFile(ctx context.Context, billID int64, userEmail string) (*models.IncomingFile, error) {
	user, err := s.resolveUser(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, lookupError("bill", err)
	}
	if bill.UserID != user.ID {
		return nil, ErrNotFound
	}

	file, err := incomingFileFrom(bill.UserID, bill.Filename, bill.FilePath, bill.UploadDate, bill.Checksum, bill.OCRData)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.files.Save(ctx, file); err != nil {
			return fmt.Errorf("failed to save incoming file: %w", err)
		}
		return s.finish(ctx, bill.Ref(), file.Ref(), bill.UserID, s.bills.Delete)
	})
	if err != nil {
		return nil, err
	}

	s.converted(bill.Ref(), file.Ref())
	return file, nil
}

func (s *EntityConversionService) RevertReceiptToIncomingFile(ctx context.Context, receiptID int64, userEmail string) (*models.IncomingFile, error) {
	user, err := s.resolveUser(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	receipt, err := s.receipts.GetByID(ctx, receiptID)
	if err != nil {
		return nil, lookupError("receipt", err)
	}
	if receipt.UserID != user.ID {
		return nil, ErrNotFound
	}

	file, err := incomingFileFrom(receipt.UserID, receipt.Filename, receipt.FilePath, receipt.UploadDate, receipt.Checksum, receipt.OCRData)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.files.Save(ctx, file); err != nil {
			return fmt.Errorf("failed to save incoming file: %w", err)
		}
		return s.finish(ctx, receipt.Ref(), file.Ref(), receipt.UserID, s.receipts.Delete)
	})
	if err != nil {
		return nil, err
	}

	s.converted(receipt.Ref(), file.Ref())
	return file, nil
}

// CanRevertToIncomingFile answers false for documents the user does not own.
func (s *EntityConversionService) CanRevertToIncomingFile(ctx context.Context, ref models.EntityRef, userEmail string) (bool, error) {
	user, err := s.users.Resolve(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	switch ref.Type {
	case models.EntityTypeBill:
		bill, err := s.bills.GetByID(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("failed to load bill: %w", err)
		}
		return bill.UserID == user.ID && bill.OriginalIncomingFileID != nil, nil

	case models.EntityTypeReceipt:
		receipt, err := s.receipts.GetByID(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("failed to load receipt: %w", err)
		}
		return receipt.UserID == user.ID && receipt.HasFileMetadata(), nil
	}

	return false, nil
}

func (s *EntityConversionService) ownedIncomingFile(ctx context.Context, fileID int64, userEmail string) (*models.IncomingFile, error) {
	user, err := s.resolveUser(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, lookupError("incoming file", err)
	}
	if file.UserID != user.ID {
		return nil, ErrNotFound
	}
	return file, nil
}

func (s *EntityConversionService) resolveUser(ctx context.Context, userEmail string) (*models.User, error) {
	user, err := s.users.Resolve(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// finish runs inside the conversion transaction once the target has its id.
func (s *EntityConversionService) finish(
	ctx context.Context,
	from, to models.EntityRef,
	userID int64,
	deleteSource func(ctx context.Context, id int64) error,
) error {
	if _, err := s.attempts.copyHistory(ctx, from, to, userID); err != nil {
		return err
	}
	if err := deleteSource(ctx, from.ID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", from, err)
	}
	return nil
}

func (s *EntityConversionService) converted(from, to models.EntityRef) {
	conversionsTotal.WithLabelValues(string(from.Type), string(to.Type)).Inc()
	s.logger.Info("Document converted",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

func lookupError(what string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func billFromIncomingFile(file *models.IncomingFile, status models.DocumentStatus) *models.Bill {
	filename, path := file.Filename, file.FilePath
	uploadDate := file.UploadDate
	sourceID := file.ID
	return &models.Bill{
		UserID:                 file.UserID,
		Filename:               &filename,
		FilePath:               &path,
		UploadDate:             &uploadDate,
		Checksum:               file.Checksum,
		Status:                 status,
		OCRData:                file.OCRData,
		OriginalIncomingFileID: &sourceID,
	}
}

// incomingFileFrom rebuilds an incoming file from a converted document. The
// file location is mandatory.
func incomingFileFrom(
	userID int64,
	filename, path *string,
	uploadDate *time.Time,
	checksum *string,
	data models.OCRData,
) (*models.IncomingFile, error) {
	if filename == nil || path == nil {
		return nil, ErrRevertNotAllowed
	}

	uploaded := time.Now()
	if uploadDate != nil {
		uploaded = *uploadDate
	}

	return &models.IncomingFile{
		UserID:     userID,
		Filename:   *filename,
		FilePath:   *path,
		UploadDate: uploaded,
		Checksum:   checksum,
		Status:     models.StatusPending,
		OCRData:    data,
	}, nil
}
