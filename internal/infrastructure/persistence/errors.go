package persistence

import (
	"errors"
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL error codes that mean "another transaction got there first"
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
)

// translateError maps driver and gorm errors onto domain sentinels.
// Unknown errors are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", shared.ErrAlreadyExists, err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return shared.NewValidationError(shared.CodeValidation, "referenced row does not exist")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %s", shared.ErrConcurrencyConflict, pgErr.Message)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", shared.ErrAlreadyExists, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return shared.NewValidationError(shared.CodeValidation, "referenced row does not exist (%s)", pgErr.ConstraintName)
		}
	}
	return err
}
