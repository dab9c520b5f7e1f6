package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	domainagg "github.com/yungbote/inkforge-backend/internal/domain/aggregates"
	"gorm.io/gorm"
)

// ValidationError and friends build errors that are already classified; MapError
// only attaches the operation to them.
func ValidationError(msg string) error { return classified(domainagg.CodeValidation, msg) }

func InvariantError(msg string) error { return classified(domainagg.CodeInvariantViolation, msg) }

func ConflictError(msg string) error { return classified(domainagg.CodeConflict, msg) }

func RetryableError(msg string) error { return classified(domainagg.CodeRetryable, msg) }

func classified(code domainagg.Code, msg string) error {
	return domainagg.NewError(code, "", msg, nil)
}

// Postgres SQLSTATE codes we classify; everything else is internal.
var pgStateCodes = map[string]domainagg.Code{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodePreconditionFailed, // foreign_key_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
}

// SQLite reports constraint and locking failures only through the message.
var messageCodes = []struct {
	fragment string
	code     domainagg.Code
}{
	{"unique constraint failed", domainagg.CodeConflict},
	{"duplicate key", domainagg.CodeConflict},
	{"database is locked", domainagg.CodeRetryable},
	{"deadlock", domainagg.CodeRetryable},
	{"serialization", domainagg.CodeRetryable},
	{"timeout", domainagg.CodeRetryable},
}

// MapError classifies a failure of op. Errors that already carry a code keep it.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		if aggErr.Op == "" {
			return &domainagg.Error{Code: aggErr.Code, Op: op, Err: aggErr.Err}
		}
		return err
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.Code {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainagg.CodeConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.CodeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.CodeRetryable
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgStateCodes[pgErr.Code]; ok {
			return code
		}
		return domainagg.CodeInternal
	}
	msg := strings.ToLower(err.Error())
	for _, m := range messageCodes {
		if strings.Contains(msg, m.fragment) {
			return m.code
		}
	}
	return domainagg.CodeInternal
}
