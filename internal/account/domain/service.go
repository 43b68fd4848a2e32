package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Principal, error)

	Create(ctx context.Context, req CreateRequest) (*UserView, error)
	List(ctx context.Context) ([]UserView, error)
	GetByID(ctx context.Context, id string) (*UserView, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*UserView, error)
	Delete(ctx context.Context, id string) error

	// EnsureAdmin creates an admin account when none exists. It reports
	// whether one was created.
	EnsureAdmin(ctx context.Context, req CreateRequest) (bool, error)
}

// LoginRequest accepts "name" for compatibility with older clients.
type LoginRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginResult struct {
	User      UserView
	RawToken  string
	ExpiresAt time.Time
}

// CreateRequest takes the role by name, by numeric id, or through the legacy
// is_admin flag. Without any of them the role is resident.
type CreateRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	RoleID   int    `json:"role_id"`
	IsAdmin  bool   `json:"is_admin"`
}

type UpdateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	RoleID   int    `json:"role_id"`
}

type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	RoleID    int       `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidSession     = errors.New("invalid_session")
	ErrSessionExpired     = errors.New("session_expired")
	ErrInvalidID          = errors.New("invalid_user_id")
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrUserExists         = errors.New("user_already_exists")
	ErrNotFound           = errors.New("user_not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(value)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
