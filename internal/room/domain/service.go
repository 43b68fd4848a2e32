package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
}

type CreateRequest struct {
	RoomNumber  string `json:"room_number"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type Response struct {
	ID          string    `json:"id"`
	RoomNumber  string    `json:"room_number"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrInvalidID         = errors.New("invalid_room_id")
	ErrInvalidRoomNumber = errors.New("invalid_room_number")
	ErrInvalidStatus     = errors.New("invalid_room_status")
	ErrAlreadyExists     = errors.New("room_already_exists")
	ErrNotFound          = errors.New("room_not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(value)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
