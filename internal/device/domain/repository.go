package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, device *Device) error
	InsertStatus(ctx context.Context, db *gorm.DB, event *StatusEvent) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Device, error)
	ListByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) ([]DeviceWithStatus, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]DeviceWithStatus, error)
	History(ctx context.Context, db *gorm.DB, deviceID snowflake.ID, limit int) ([]StatusEvent, error)
	// Delete removes the device, its status log and its readings.
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
