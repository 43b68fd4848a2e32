package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListCursor continues a device listing after the given reading.
type ListCursor struct {
	RecordedAt time.Time
	ID         snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reading *Reading) error
	InsertBatch(ctx context.Context, db *gorm.DB, readings []Reading) error
	// ListByDevice returns readings newest first.
	ListByDevice(ctx context.Context, db *gorm.DB, deviceID snowflake.ID, after *ListCursor, limit int) ([]Reading, error)
}
