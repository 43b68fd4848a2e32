package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	assignmentdomain "github.com/smallbiznis/roomwatt/internal/assignment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() assignmentdomain.Repository {
	return &repo{}
}

// ListAssignments returns every assigned user, active ones first.
func (r *repo) ListAssignments(ctx context.Context, db *gorm.DB) ([]assignmentdomain.AssignmentRow, error) {
	var rows []assignmentdomain.AssignmentRow
	err := db.WithContext(ctx).Raw(
		`SELECT ud.user_id, u.username, ud.first_name, ud.last_name, ud.room_number, ud.status,
		        r.id AS room_id, r.description
		 FROM user_details ud
		 JOIN users u ON u.id = ud.user_id
		 LEFT JOIN rooms r ON r.room_number = ud.room_number
		 WHERE ud.room_number IS NOT NULL
		 ORDER BY CASE WHEN ud.status = 'active' THEN 0 ELSE 1 END, ud.room_number ASC, u.username ASC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListOccupants(ctx context.Context, db *gorm.DB) ([]assignmentdomain.OccupantRow, error) {
	var rows []assignmentdomain.OccupantRow
	err := db.WithContext(ctx).Raw(
		`SELECT r.id AS room_id, r.room_number, r.description,
		        ud.user_id, u.username, ud.first_name, ud.last_name
		 FROM rooms r
		 LEFT JOIN user_details ud ON ud.room_number = r.room_number AND ud.status = 'active'
		 LEFT JOIN users u ON u.id = ud.user_id
		 ORDER BY r.room_number ASC, ud.first_name ASC, ud.last_name ASC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListResidents(ctx context.Context, db *gorm.DB, roomNumber string) ([]assignmentdomain.ResidentRow, error) {
	var rows []assignmentdomain.ResidentRow
	err := db.WithContext(ctx).Raw(
		`SELECT u.id AS user_id, u.username, u.email, u.role,
		        ud.first_name, ud.last_name, ud.status
		 FROM users u
		 JOIN user_details ud ON ud.user_id = u.id
		 WHERE ud.room_number = ? AND ud.status = 'active'
		 ORDER BY u.username ASC`,
		roomNumber,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ActiveRoomNumber(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*string, error) {
	var details assignmentdomain.Details
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, room_number, status FROM user_details
		 WHERE user_id = ? AND status = 'active' AND room_number IS NOT NULL`,
		userID,
	).Scan(&details).Error
	if err != nil {
		return nil, err
	}
	if details.UserID == 0 {
		return nil, nil
	}
	return details.RoomNumber, nil
}

func (r *repo) CountActive(ctx context.Context, db *gorm.DB, roomNumber string, exclude snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM user_details
		 WHERE room_number = ? AND status = 'active' AND user_id <> ?`,
		roomNumber,
		exclude,
	).Scan(&count).Error
	return count, err
}

func (r *repo) FindDetails(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*assignmentdomain.Details, error) {
	var details assignmentdomain.Details
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, first_name, last_name, room_number, status
		 FROM user_details WHERE user_id = ?`,
		userID,
	).Scan(&details).Error
	if err != nil {
		return nil, err
	}
	if details.UserID == 0 {
		return nil, nil
	}
	return &details, nil
}

func (r *repo) InsertDetails(ctx context.Context, db *gorm.DB, details *assignmentdomain.Details) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_details (user_id, first_name, last_name, room_number, status)
		 VALUES (?, ?, ?, ?, ?)`,
		details.UserID,
		details.FirstName,
		details.LastName,
		details.RoomNumber,
		details.Status,
	).Error
}

func (r *repo) SetRoom(ctx context.Context, db *gorm.DB, userID snowflake.ID, roomNumber string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE user_details SET room_number = ?, status = 'active' WHERE user_id = ?`,
		roomNumber,
		userID,
	).Error
}

// ClearRoom reports false when the user had no room.
func (r *repo) ClearRoom(ctx context.Context, db *gorm.DB, userID snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE user_details SET room_number = NULL WHERE user_id = ? AND room_number IS NOT NULL`,
		userID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
