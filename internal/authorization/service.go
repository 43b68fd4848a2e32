package authorization

import (
	"context"
	"errors"

	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
)

type Service interface {
	// Authorize returns ErrForbidden when role may not perform action on
	// object.
	Authorize(ctx context.Context, role accountdomain.Role, object, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)
