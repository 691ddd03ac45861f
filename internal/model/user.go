package model

import "time"

// Role names accepted in the JWT "role" claim.
const (
	RoleManager     = "MANAGER"
	RoleSalesperson = "SALESPERSON"
)

// User represents an application user record as stored in the
// `users` table.  Salespersons always reference the manager they
// report to; managers have no ManagerID.
//
// Fields:
//
//	ID           – UUID primary key.
//	Name         – display name.
//	Role         – MANAGER or SALESPERSON.
//	Address      – postal address.
//	Email        – unique, lower-cased email address.
//	Phone        – E.164 phone number.
//	PasswordHash – bcrypt hashed password.
//	ManagerID    – owning manager (nil for managers).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Role         string    `db:"role" json:"role"`
	Address      string    `db:"address" json:"address"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	ManagerID    *string   `db:"manager_id" json:"manager_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
