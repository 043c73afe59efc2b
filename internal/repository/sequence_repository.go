package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The upsert takes a row lock on the scope, so concurrent allocations in the
// same scope queue behind each other until the owning transaction ends.
const nextSequenceQuery = `INSERT INTO identifier_sequences (scope, value, updated_at) VALUES ($1, 1, NOW())
ON CONFLICT (scope) DO UPDATE SET value = identifier_sequences.value + 1, updated_at = NOW()
RETURNING value`

func nextSequence(ctx context.Context, q sqlx.QueryerContext, scope string) (int, error) {
	var value int
	if err := sqlx.GetContext(ctx, q, &value, nextSequenceQuery, scope); err != nil {
		return 0, fmt.Errorf("allocate sequence %s: %w", scope, err)
	}
	return value, nil
}
