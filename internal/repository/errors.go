// Package repository holds the SQL persistence layer.  Repositories
// translate driver errors into the model error taxonomy so higher layers
// never inspect database/sql sentinels: a missing row becomes a
// *model.NotFoundError and any other failure is wrapped in
// model.ErrStorage.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iliyamo/auditorium-booking/internal/model"
)

// ErrEmailExists is returned when registering an email that is already
// taken.  Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// isDuplicateKey reports unique constraint violations for both drivers.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}

// lookupErr maps sql.ErrNoRows to NotFound(entity) and wraps everything
// else as a storage error.
func lookupErr(entity, op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFound(entity)
	}
	return model.Storage(op, err)
}
