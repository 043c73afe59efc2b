package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/repository"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

// storeError maps repository failures onto the API taxonomy. subject names
// the record in messages, e.g. "case".
func storeError(err error, subject string) error {
	var appErr *appErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, subject+" not found")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, subject+" already exists")
	case errors.Is(err, repository.ErrStaleState):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, subject+" was modified concurrently")
	case errors.Is(err, repository.ErrNotPending):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, subject+" is no longer pending")
	}
	return appErrors.Dependency(err, fmt.Sprintf("failed to persist %s", subject))
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func conflict(message string) error {
	return appErrors.Clone(appErrors.ErrConflict, message)
}
