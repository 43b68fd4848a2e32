package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const DefaultHistoryLimit = 10

type Service interface {
	ListByRoom(ctx context.Context, roomID string) ([]Response, error)
	Add(ctx context.Context, req AddRequest) (*Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	SetStatus(ctx context.Context, id string, status string) (*Response, error)
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, id string, limit int) ([]StatusResponse, error)
	// ListActive returns every device whose latest status draws power.
	ListActive(ctx context.Context) ([]Response, error)
	// SeedTestDevices installs the demo device set with random on/off states.
	SeedTestDevices(ctx context.Context, roomID string) ([]Response, error)
}

type AddRequest struct {
	RoomID     string `json:"room_id"`
	DeviceType string `json:"device_type"`
	DeviceName string `json:"device_name"`
}

type Response struct {
	ID          string     `json:"id"`
	RoomID      string     `json:"room_id"`
	DeviceType  Type       `json:"device_type"`
	DeviceName  string     `json:"device_name"`
	Status      *Status    `json:"status"`
	LastUpdated *time.Time `json:"last_updated"`
	CreatedAt   time.Time  `json:"created_at"`
}

type StatusResponse struct {
	Status     Status    `json:"status"`
	RecordedAt time.Time `json:"timestamp"`
}

var (
	ErrInvalidID     = errors.New("invalid_device_id")
	ErrInvalidRoomID = errors.New("invalid_room_id")
	ErrInvalidType   = errors.New("invalid_device_type")
	ErrInvalidName   = errors.New("invalid_device_name")
	ErrInvalidStatus = errors.New("invalid_device_status")
	ErrRoomNotFound  = errors.New("room_not_found")
	ErrNotFound      = errors.New("device_not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(value)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
