package services

import (
	"errors"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// isUniqueConstraintError reports whether err is a uniqueness violation.
// Application-level existence checks are only pre-flight; under concurrent
// writes the database constraint is the authority, and each vendor surfaces
// the violation differently.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	// sqlite has no typed error exposed through gorm; sniff the message.
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"unique", "duplicate", "constraint"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
