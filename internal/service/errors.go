package service

import "errors"

var (
	// ErrNotFound covers both a missing record and a record owned by another
	// user, so callers cannot probe for foreign ids.
	ErrNotFound            = errors.New("not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrRevertNotAllowed    = errors.New("document cannot be reverted to an incoming file")
	ErrNotReadyForDispatch = errors.New("incoming file is not ready for dispatch")
	ErrNotPending          = errors.New("incoming file is not pending OCR")
)
