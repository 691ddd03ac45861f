package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auditorium-booking/internal/identity"
	"github.com/iliyamo/auditorium-booking/internal/model"
	"github.com/iliyamo/auditorium-booking/internal/repository"
	"github.com/iliyamo/auditorium-booking/internal/utils"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefresh means the refresh token is unknown, revoked or expired.
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

var (
	emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, u *model.User, password string, cost int) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListByManager(ctx context.Context, managerID string) ([]model.User, error)
}

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// AuthSettings are the token and hashing parameters.
type AuthSettings struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Address   string `json:"address"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	ManagerID string `json:"manager_id"`
}

// Session is an access/refresh token pair issued to a user.
type Session struct {
	User    *model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AccountService registers users, issues tokens and decides whose data a
// caller may see.
type AccountService struct {
	users  UserStore
	tokens TokenStore
	cfg    AuthSettings
	log    logrus.FieldLogger
}

func NewAccountService(users UserStore, tokens TokenStore, cfg AuthSettings, log logrus.FieldLogger) *AccountService {
	return &AccountService{users: users, tokens: tokens, cfg: cfg, log: log}
}

// Register creates a MANAGER, or a SALESPERSON reporting to an existing
// MANAGER, and signs the new user in.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	in.Address = strings.TrimSpace(in.Address)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.ManagerID = strings.TrimSpace(in.ManagerID)

	required := []struct{ field, value string }{
		{"name", in.Name},
		{"role", in.Role},
		{"address", in.Address},
		{"email", in.Email},
		{"phone", in.Phone},
		{"password", in.Password},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, model.Required(f.field)
		}
	}
	switch {
	case in.Role != model.RoleManager && in.Role != model.RoleSalesperson:
		return nil, model.Invalid("role", "must be MANAGER or SALESPERSON")
	case !emailRe.MatchString(in.Email):
		return nil, model.Invalid("email", "is not a valid email address")
	case !phoneRe.MatchString(in.Phone):
		return nil, model.Invalid("phone", "must be in E.164 format")
	case len(in.Password) < 6:
		return nil, model.Invalid("password", "must be at least 6 characters")
	}

	u := &model.User{
		Name:    in.Name,
		Role:    in.Role,
		Address: in.Address,
		Email:   in.Email,
		Phone:   in.Phone,
	}
	if in.Role == model.RoleSalesperson {
		if in.ManagerID == "" {
			return nil, model.Required("manager_id")
		}
		m, err := s.users.GetByID(ctx, in.ManagerID)
		if errors.Is(err, model.ErrNotFound) || (err == nil && m.Role != model.RoleManager) {
			return nil, model.Invalid("manager_id", "must reference an existing manager")
		}
		if err != nil {
			return nil, err
		}
		u.ManagerID = &m.ID
	}

	if err := s.users.Create(ctx, u, in.Password, s.cfg.BcryptCost); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")
	return s.issue(ctx, u)
}

// Login verifies the password and issues a new session.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, model.Invalid("", "email/password required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, u)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// is issued.
func (s *AccountService) Refresh(ctx context.Context, raw string) (*Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, model.Required("refresh_token")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return nil, model.Storage("revoke refresh", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrInvalidRefresh
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// Logout revokes one refresh token, or every token of userID when raw is
// empty.
func (s *AccountService) Logout(ctx context.Context, userID, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := s.tokens.ValidateRefresh(ctx, hash); err != nil {
			return ErrInvalidRefresh
		}
		if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
			return model.Storage("revoke refresh", err)
		}
		return nil
	}
	if userID == "" {
		return model.Invalid("", "provide Authorization header or refresh_token")
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return model.Storage("revoke refresh", err)
	}
	return nil
}

func (s *AccountService) issue(ctx context.Context, u *model.User) (*Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, model.Storage("store refresh", err)
	}
	return &Session{User: u, Access: access, Refresh: refresh}, nil
}

// Me loads the caller's own profile.
func (s *AccountService) Me(ctx context.Context, caller identity.Identity) (*model.User, error) {
	return s.users.GetByID(ctx, caller.UserID)
}

// ListSalespersons returns the salespersons reporting to the calling manager.
func (s *AccountService) ListSalespersons(ctx context.Context, caller identity.Identity) ([]model.User, error) {
	if !caller.IsManager() {
		return nil, model.ErrForbidden
	}
	return s.users.ListByManager(ctx, caller.UserID)
}

// CanActFor allows a caller to read their own data, and a manager to read
// the data of their salespersons.
func (s *AccountService) CanActFor(ctx context.Context, caller identity.Identity, userID string) error {
	if userID == "" || userID == caller.UserID {
		return nil
	}
	if !caller.IsManager() {
		return model.ErrForbidden
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NotFound(model.EntityUser)
	}
	if err != nil {
		return err
	}
	if u.ManagerID == nil || *u.ManagerID != caller.UserID {
		return model.ErrForbidden
	}
	return nil
}

// ensure the SQL repositories satisfy the service interfaces
var (
	_ UserStore     = (*repository.UserRepo)(nil)
	_ TokenStore    = (*repository.TokenRepo)(nil)
	_ ShowStore     = (*repository.ShowRepo)(nil)
	_ ShowWriter    = (*repository.ShowRepo)(nil)
	_ BookingStore  = (*repository.BookingRepo)(nil)
	_ BookingReader = (*repository.BookingRepo)(nil)
)
