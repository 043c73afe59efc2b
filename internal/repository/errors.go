package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Repository sentinels. Missing rows are reported as sql.ErrNoRows.
var (
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleState is returned when a compare-and-swap update matched no
	// row because the guarded columns changed.
	ErrStaleState = errors.New("record changed concurrently")
	// ErrNotPending is returned when resolving an approval that is no
	// longer pending.
	ErrNotPending = errors.New("approval is not pending")
)

const uniqueViolation = "23505"

// mapWriteError turns unique violations into ErrDuplicate, keeping the
// constraint name for diagnostics.
func mapWriteError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pqErr.Constraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}
