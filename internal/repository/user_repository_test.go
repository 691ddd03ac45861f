package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/auditorium-booking/internal/model"
	"github.com/iliyamo/auditorium-booking/internal/utils"
)

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		u := &model.User{Name: "Mira", Role: model.RoleManager, Address: "1 Main St", Email: " Mira@Example.com", Phone: "+14155550100"}

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(sqlmock.AnyArg(), "Mira", "MANAGER", "1 Main St", "mira@example.com", "+14155550100",
				sqlmock.AnyArg(), nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewUserRepo(db).Create(context.Background(), u, "secret1", bcrypt.MinCost))
		assert.NotEmpty(t, u.ID)
		assert.True(t, utils.VerifyPassword(u.PasswordHash, "secret1"))
		assert.Equal(t, u.CreatedAt, u.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	for name, dup := range map[string]error{
		"Duplicate MySQL":    &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"},
		"Duplicate Postgres": &pgconn.PgError{Code: "23505"},
	} {
		t.Run(name, func(t *testing.T) {
			db, mock := setupTestDB(t)
			mock.ExpectExec(`INSERT INTO users`).WillReturnError(dup)

			err := NewUserRepo(db).Create(context.Background(), &model.User{Email: "a@b.co"}, "secret1", bcrypt.MinCost)
			assert.ErrorIs(t, err, ErrEmailExists)
		})
	}

	t.Run("Database Error", func(t *testing.T) {
		db, mock := setupTestDB(t)
		mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("database error"))

		err := NewUserRepo(db).Create(context.Background(), &model.User{Email: "a@b.co"}, "secret1", bcrypt.MinCost)
		assert.ErrorIs(t, err, model.ErrStorage)
		assert.NotErrorIs(t, err, ErrEmailExists)
	})
}

var userCols = []string{"id", "name", "role", "address", "email", "phone", "password_hash", "manager_id", "created_at", "updated_at"}

func TestGetUserByEmail(t *testing.T) {
	db, mock := setupTestDB(t)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM users WHERE email = \?`).
		WithArgs("sam@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-2", "Sam", "SALESPERSON", "2 Side St", "sam@example.com", "+14155550101", "hash", "u-1", now, now))

	u, err := NewUserRepo(db).GetByEmail(context.Background(), "  SAM@example.com ")
	require.NoError(t, err)
	require.NotNil(t, u.ManagerID)
	assert.Equal(t, "u-1", *u.ManagerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByID_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectQuery(`FROM users WHERE id = \?`).WillReturnError(sql.ErrNoRows)

	_, err := NewUserRepo(db).GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListByManager(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectQuery(`WHERE manager_id = \? AND role = \? ORDER BY name`).
		WithArgs("u-1", "SALESPERSON").
		WillReturnRows(sqlmock.NewRows(userCols))

	users, err := NewUserRepo(db).ListByManager(context.Background(), "u-1")
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestValidateRefresh(t *testing.T) {
	cols := []string{"user_id", "expires_at", "revoked_at"}
	future := time.Now().UTC().Add(time.Hour)

	t.Run("Valid", func(t *testing.T) {
		db, mock := setupTestDB(t)
		mock.ExpectQuery(`FROM refresh_tokens WHERE token_hash = \?`).
			WithArgs("h").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("u-1", future, nil))

		id, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
		require.NoError(t, err)
		assert.Equal(t, "u-1", id)
	})

	t.Run("Revoked", func(t *testing.T) {
		db, mock := setupTestDB(t)
		mock.ExpectQuery(`FROM refresh_tokens`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow("u-1", future, time.Now().UTC()))

		_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Expired", func(t *testing.T) {
		db, mock := setupTestDB(t)
		mock.ExpectQuery(`FROM refresh_tokens`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow("u-1", time.Now().UTC().Add(-time.Minute), nil))

		_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestRevokeAllForUser(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at = \? WHERE user_id = \? AND revoked_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, NewTokenRepo(db).RevokeAllForUser(context.Background(), "u-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
