package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/roomwatt/pkg/db/pagination"
)

const (
	DefaultTestReadings = 24
	MaxTestReadings     = 24 * 31
	DefaultListLimit    = 50
	MaxListLimit        = 500
)

type RecordRequest struct {
	DeviceID       string     `json:"device_id"`
	EnergyConsumed float64    `json:"energy_consumed"`
	RecordedAt     *time.Time `json:"recorded_at"`

	// Source tags the reading in the live feed and metrics.
	Source string `json:"-"`
}

type GenerateRequest struct {
	RoomID   string `json:"room_id"`
	DeviceID string `json:"device_id"`
	Count    int    `json:"count"`
}

type ListRequest struct {
	DeviceID  string
	PageToken string
	Limit     int
}

type Response struct {
	ID             string    `json:"id"`
	DeviceID       string    `json:"device_id"`
	RoomID         string    `json:"room_id"`
	EnergyConsumed float64   `json:"energy_consumed"`
	RecordedAt     time.Time `json:"recorded_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Readings []Response `json:"readings"`
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*Response, error)
	ListRecent(ctx context.Context, req ListRequest) (ListResponse, error)
	// GenerateTestReadings writes hourly synthetic readings ending one hour
	// before now.
	GenerateTestReadings(ctx context.Context, req GenerateRequest) ([]Response, error)
}

var (
	ErrInvalidDevice     = errors.New("invalid_device_id")
	ErrInvalidRoom       = errors.New("invalid_room_id")
	ErrInvalidEnergy     = errors.New("invalid_energy_consumed")
	ErrInvalidRecordedAt = errors.New("invalid_recorded_at")
	ErrInvalidCount      = errors.New("invalid_count")
	ErrDeviceNotFound    = errors.New("device_not_found")
	ErrDeviceNotInRoom   = errors.New("device_not_in_room")
	ErrTestDataDisabled  = errors.New("test_data_disabled")
)
