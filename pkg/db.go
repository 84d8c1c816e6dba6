package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsCheckViolationError checks if the error is a check constraint violation
func IsCheckViolationError(err error) bool {
	return pgErrorCode(err) == "23514"
}

// IsStringTooLongError checks if a value did not fit its varchar column
func IsStringTooLongError(err error) bool {
	return pgErrorCode(err) == "22001"
}
