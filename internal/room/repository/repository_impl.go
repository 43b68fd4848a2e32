package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() roomdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, room *roomdomain.Room) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO rooms (id, room_number, description, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		room.ID,
		room.RoomNumber,
		room.Description,
		room.Status,
		room.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*roomdomain.Room, error) {
	var room roomdomain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT id, room_number, description, status, created_at
		 FROM rooms WHERE id = ?`,
		id,
	).Scan(&room).Error
	if err != nil {
		return nil, err
	}
	if room.ID == 0 {
		return nil, nil
	}
	return &room, nil
}

func (r *repo) FindByNumber(ctx context.Context, db *gorm.DB, roomNumber string) (*roomdomain.Room, error) {
	var room roomdomain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT id, room_number, description, status, created_at
		 FROM rooms WHERE room_number = ?`,
		roomNumber,
	).Scan(&room).Error
	if err != nil {
		return nil, err
	}
	if room.ID == 0 {
		return nil, nil
	}
	return &room, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]roomdomain.Room, error) {
	var rooms []roomdomain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT id, room_number, description, status, created_at
		 FROM rooms ORDER BY room_number ASC`,
	).Scan(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}
