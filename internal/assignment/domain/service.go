package domain

import (
	"context"
	"errors"

	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
)

type Service interface {
	ListAssignments(ctx context.Context) ([]Assignment, error)
	RoomsWithUsers(ctx context.Context) ([]RoomOccupancy, error)
	UserRoom(ctx context.Context, userID string) (*roomdomain.Response, error)
	UsersByRoom(ctx context.Context, roomID string) ([]Resident, error)
	Assign(ctx context.Context, userID string, req AssignRequest) error
	Remove(ctx context.Context, userID string) error
}

type AssignRequest struct {
	RoomID string `json:"room_id"`
}

type Assignment struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	RoomNumber  string `json:"room_number"`
	RoomID      string `json:"room_id,omitempty"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
}

type RoomOccupancy struct {
	RoomID        string   `json:"room_id"`
	RoomNumber    string   `json:"room_number"`
	Description   string   `json:"description"`
	Capacity      int      `json:"capacity"`
	Residents     []string `json:"residents"`
	ResidentCount int      `json:"resident_count"`
}

type Resident struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Status    Status `json:"status"`
}

var (
	ErrInvalidUser    = errors.New("invalid_user_id")
	ErrInvalidRoom    = errors.New("invalid_room_id")
	ErrUserNotFound   = errors.New("user_not_found")
	ErrRoomNotFound   = errors.New("room_not_found")
	ErrNotAssigned    = errors.New("no_room_assigned")
	ErrRoomAtCapacity = errors.New("room is already at capacity")
	ErrAssignmentBusy = errors.New("assignment_in_progress")
)
