package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusMaintenance Status = "maintenance"
)

// Room is a physical dormitory room. Residents reference it by RoomNumber.
type Room struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	RoomNumber  string       `gorm:"type:varchar(32);not null;uniqueIndex:ux_rooms_room_number"`
	Description string       `gorm:"type:text"`
	Status      Status       `gorm:"type:varchar(16);not null;default:available"`
	CreatedAt   time.Time    `gorm:"not null"`
}

func (Room) TableName() string { return "rooms" }

// Capacity is 2 for rooms described as double, otherwise 1.
func (r Room) Capacity() int {
	return CapacityFor(r.Description)
}

func CapacityFor(description string) int {
	if strings.Contains(strings.ToLower(description), "double") {
		return 2
	}
	return 1
}

func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusAvailable:
		return StatusAvailable, true
	case StatusOccupied:
		return StatusOccupied, true
	case StatusMaintenance:
		return StatusMaintenance, true
	default:
		return "", false
	}
}
