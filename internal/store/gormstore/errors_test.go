package gormstore

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"store error passes", store.Forbidden("nope"), http.StatusForbidden},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, http.StatusConflict},
		{"gorm foreign key", fmt.Errorf("create: %w", gorm.ErrForeignKeyViolated), http.StatusConflict},
		{"postgres unique", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, http.StatusConflict},
		{"postgres foreign key", &pgconn.PgError{Code: "23503", Message: "still referenced"}, http.StatusConflict},
		{"postgres not null", &pgconn.PgError{Code: "23502", Message: "null value"}, http.StatusBadRequest},
		{"postgres bad text", &pgconn.PgError{Code: "22P02", Message: "invalid input syntax"}, http.StatusBadRequest},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, http.StatusConflict},
		{"mysql referenced", &mysql.MySQLError{Number: 1451, Message: "Cannot delete"}, http.StatusConflict},
		{"mysql no parent", &mysql.MySQLError{Number: 1452, Message: "Cannot add"}, http.StatusConflict},
		{"mysql null", &mysql.MySQLError{Number: 1048, Message: "cannot be null"}, http.StatusBadRequest},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed (787)"), http.StatusConflict},
		{"sqlite unique", errors.New("UNIQUE constraint failed: properties.id"), http.StatusConflict},
		{"sqlite not null", errors.New("NOT NULL constraint failed: properties.name"), http.StatusBadRequest},
		{"anything else", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, store.StatusOf(translateError(tt.err)))
		})
	}

	assert.NoError(t, translateError(nil))
}
