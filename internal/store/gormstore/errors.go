package gormstore

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"gorm.io/gorm"
)

// MySQL/MariaDB server error numbers
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
	mysqlBadNull         = 1048
)

// translateError maps driver errors onto store errors.
// Errors that are already store errors pass through.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var se *store.Error
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.NotFound(err.Error())
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return store.Conflict(err.Error())
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503", "23505":
			return store.Conflict(pgErr.Message)
		case "23502", "22P02":
			return store.BadRequest(pgErr.Message)
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry, mysqlRowIsReferenced, mysqlNoReferencedRow:
			return store.Conflict(myErr.Message)
		case mysqlBadNull:
			return store.BadRequest(myErr.Message)
		}
	}

	// sqlite drivers report constraint failures as plain text
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "UNIQUE constraint failed"):
		return store.Conflict(msg)
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return store.BadRequest(msg)
	}

	return store.NewError(http.StatusInternalServerError, store.TypeInternal, msg)
}
