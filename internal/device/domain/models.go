package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Type string

const (
	TypeLight      Type = "light"
	TypeBlind      Type = "blind"
	TypeThermostat Type = "thermostat"
	TypeOther      Type = "other"
)

type Status string

const (
	StatusOn     Status = "on"
	StatusOff    Status = "off"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Device is a controllable appliance installed in a room.
type Device struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	RoomID     snowflake.ID `gorm:"not null;index:idx_devices_room"`
	DeviceType Type         `gorm:"type:varchar(16);not null"`
	DeviceName string       `gorm:"type:varchar(128);not null"`
	CreatedAt  time.Time    `gorm:"not null"`
}

func (Device) TableName() string { return "devices" }

// StatusEvent is one entry of the append-only status log. The newest entry
// is the device's current status.
type StatusEvent struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	DeviceID   snowflake.ID `gorm:"not null;index:idx_device_status_device"`
	Status     Status       `gorm:"type:varchar(16);not null"`
	RecordedAt time.Time    `gorm:"not null"`
}

func (StatusEvent) TableName() string { return "device_status" }

// DeviceWithStatus joins a device with its latest status event.
type DeviceWithStatus struct {
	Device
	Status      *Status
	LastUpdated *time.Time
}

func ParseType(value string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeLight:
		return TypeLight, true
	case TypeBlind:
		return TypeBlind, true
	case TypeThermostat:
		return TypeThermostat, true
	case TypeOther:
		return TypeOther, true
	default:
		return "", false
	}
}

func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusOn:
		return StatusOn, true
	case StatusOff:
		return StatusOff, true
	case StatusOpen:
		return StatusOpen, true
	case StatusClosed:
		return StatusClosed, true
	default:
		return "", false
	}
}

// Active reports whether a device in this status draws power.
func (s Status) Active() bool {
	return s == StatusOn || s == StatusOpen
}
