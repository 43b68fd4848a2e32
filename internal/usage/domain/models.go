// Package domain contains the energy reading log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Reading stores the energy one device consumed up to RecordedAt. Readings
// are append-only and only removed together with their device.
type Reading struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	DeviceID       snowflake.ID `gorm:"not null;index:idx_energy_usage_device_time,priority:1"`
	RoomID         snowflake.ID `gorm:"not null;index:idx_energy_usage_room_time,priority:1"`
	EnergyConsumed float64      `gorm:"not null"`
	RecordedAt     time.Time    `gorm:"not null;index:idx_energy_usage_device_time,priority:2;index:idx_energy_usage_room_time,priority:2"`
	CreatedAt      time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (Reading) TableName() string { return "energy_usage" }
