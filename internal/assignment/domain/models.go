// Package domain contains resident-to-room assignments.
package domain

import "github.com/bwmarrin/snowflake"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Details is the per-user profile row. Assignments reference a room by its
// room_number rather than its id; a NULL RoomNumber means unassigned.
type Details struct {
	UserID     snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	FirstName  string       `gorm:"type:varchar(64)"`
	LastName   string       `gorm:"type:varchar(64)"`
	RoomNumber *string      `gorm:"type:varchar(32);index:idx_user_details_room_status,priority:1"`
	Status     Status       `gorm:"type:varchar(16);not null;default:active;index:idx_user_details_room_status,priority:2"`
}

// TableName sets the database table name.
func (Details) TableName() string { return "user_details" }

// AssignmentRow joins a details row with its user and, when it still exists,
// its room.
type AssignmentRow struct {
	UserID      snowflake.ID
	Username    string
	FirstName   string
	LastName    string
	RoomNumber  string
	Status      Status
	RoomID      *snowflake.ID
	Description *string
}

// OccupantRow is one room with at most one active resident. Rooms without
// residents appear once with a nil UserID.
type OccupantRow struct {
	RoomID      snowflake.ID
	RoomNumber  string
	Description string
	UserID      *snowflake.ID
	Username    *string
	FirstName   *string
	LastName    *string
}

type ResidentRow struct {
	UserID    snowflake.ID
	Username  string
	Email     string
	Role      int
	FirstName string
	LastName  string
	Status    Status
}
