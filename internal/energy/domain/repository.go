package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// TimedValue is a reading reduced to what bucketing needs.
type TimedValue struct {
	RecordedAt     time.Time
	EnergyConsumed float64
}

type SummaryRow struct {
	Total   float64
	Average float64
	Peak    float64
}

type TypeTotal struct {
	DeviceType string
	Total      float64
}

// Repository reads the reading log. A nil roomID spans all rooms.
type Repository interface {
	RoomExists(ctx context.Context, db *gorm.DB, roomID snowflake.ID) (bool, error)
	ReadingsInWindow(ctx context.Context, db *gorm.DB, roomID snowflake.ID, w Window) ([]TimedValue, error)
	Summary(ctx context.Context, db *gorm.DB, roomID *snowflake.ID, w Window) (SummaryRow, error)
	TotalsByDeviceType(ctx context.Context, db *gorm.DB, roomID *snowflake.ID, w Window) ([]TypeTotal, error)
}
