package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/roomwatt/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reading *usagedomain.Reading) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO energy_usage (id, device_id, room_id, energy_consumed, recorded_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		reading.ID,
		reading.DeviceID,
		reading.RoomID,
		reading.EnergyConsumed,
		reading.RecordedAt,
		reading.CreatedAt,
	).Error
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, readings []usagedomain.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(readings, 100).Error
}

func (r *repo) ListByDevice(ctx context.Context, db *gorm.DB, deviceID snowflake.ID, after *usagedomain.ListCursor, limit int) ([]usagedomain.Reading, error) {
	query := `SELECT id, device_id, room_id, energy_consumed, recorded_at, created_at
		FROM energy_usage WHERE device_id = ?`
	args := []any{deviceID}
	if after != nil {
		query += ` AND (recorded_at < ? OR (recorded_at = ? AND id < ?))`
		args = append(args, after.RecordedAt, after.RecordedAt, after.ID)
	}
	query += ` ORDER BY recorded_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var readings []usagedomain.Reading
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}
