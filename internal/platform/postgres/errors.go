package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rushledger/pkg/platform/sentinel"
)

// Postgres error classes the stores care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// MapError translates driver-level failures into sentinel errors so services
// never see pq internals. Unknown errors pass through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrConflict)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrNotFound)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrInvalidState)
		}
	}
	return err
}
