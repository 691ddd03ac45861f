package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/auditorium-booking/internal/model"
	"github.com/iliyamo/auditorium-booking/internal/utils"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const selectUser = `SELECT id, name, role, address, email, phone, password_hash, manager_id, created_at, updated_at FROM users`

// Create hashes password, inserts u and fills in its ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.ID = uuid.NewString()
	u.PasswordHash = hash
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	u.UpdatedAt = u.CreatedAt
	_, err = r.DB.ExecContext(ctx, r.DB.Rebind(`INSERT INTO users
		(id, name, role, address, email, phone, password_hash, manager_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Name, u.Role, u.Address, u.Email, u.Phone, u.PasswordHash, u.ManagerID, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return model.Storage("insert user", err)
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	if err := r.DB.GetContext(ctx, &u, r.DB.Rebind(selectUser+` WHERE email = ?`), email); err != nil {
		return nil, lookupErr(model.EntityUser, "load user", err)
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.DB.GetContext(ctx, &u, r.DB.Rebind(selectUser+` WHERE id = ?`), id); err != nil {
		return nil, lookupErr(model.EntityUser, "load user", err)
	}
	return &u, nil
}

// ListByManager returns the salespersons reporting to managerID, by name.
func (r *UserRepo) ListByManager(ctx context.Context, managerID string) ([]model.User, error) {
	users := []model.User{}
	q := r.DB.Rebind(selectUser + ` WHERE manager_id = ? AND role = ? ORDER BY name`)
	if err := r.DB.SelectContext(ctx, &users, q, managerID, model.RoleSalesperson); err != nil {
		return nil, model.Storage("list salespersons", err)
	}
	return users, nil
}
