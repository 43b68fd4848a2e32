package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListAssignments(ctx context.Context, db *gorm.DB) ([]AssignmentRow, error)
	ListOccupants(ctx context.Context, db *gorm.DB) ([]OccupantRow, error)
	ListResidents(ctx context.Context, db *gorm.DB, roomNumber string) ([]ResidentRow, error)
	ActiveRoomNumber(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*string, error)
	CountActive(ctx context.Context, db *gorm.DB, roomNumber string, exclude snowflake.ID) (int64, error)
	FindDetails(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Details, error)
	InsertDetails(ctx context.Context, db *gorm.DB, details *Details) error
	SetRoom(ctx context.Context, db *gorm.DB, userID snowflake.ID, roomNumber string) error
	ClearRoom(ctx context.Context, db *gorm.DB, userID snowflake.ID) (bool, error)
}
