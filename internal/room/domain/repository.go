package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, room *Room) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	FindByNumber(ctx context.Context, db *gorm.DB, roomNumber string) (*Room, error)
	List(ctx context.Context, db *gorm.DB) ([]Room, error)
}
