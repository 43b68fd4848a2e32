package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	energydomain "github.com/smallbiznis/roomwatt/internal/energy/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() energydomain.Repository {
	return &repo{}
}

func (r *repo) RoomExists(ctx context.Context, db *gorm.DB, roomID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM rooms WHERE id = ?`, roomID).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReadingsInWindow returns readings in insertion order so sums are
// reproducible.
func (r *repo) ReadingsInWindow(ctx context.Context, db *gorm.DB, roomID snowflake.ID, w energydomain.Window) ([]energydomain.TimedValue, error) {
	var rows []energydomain.TimedValue
	err := db.WithContext(ctx).Raw(
		`SELECT recorded_at, energy_consumed
		 FROM energy_usage
		 WHERE room_id = ? AND recorded_at >= ? AND recorded_at < ?
		 ORDER BY id ASC`,
		roomID,
		w.Start.UTC(),
		w.End.UTC(),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Summary(ctx context.Context, db *gorm.DB, roomID *snowflake.ID, w energydomain.Window) (energydomain.SummaryRow, error) {
	query := `SELECT COALESCE(SUM(energy_consumed), 0) AS total,
		COALESCE(AVG(energy_consumed), 0) AS average,
		COALESCE(MAX(energy_consumed), 0) AS peak
		FROM energy_usage
		WHERE recorded_at >= ? AND recorded_at < ?`
	args := []any{w.Start.UTC(), w.End.UTC()}
	if roomID != nil {
		query += ` AND room_id = ?`
		args = append(args, *roomID)
	}

	var row energydomain.SummaryRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
		return energydomain.SummaryRow{}, err
	}
	return row, nil
}

func (r *repo) TotalsByDeviceType(ctx context.Context, db *gorm.DB, roomID *snowflake.ID, w energydomain.Window) ([]energydomain.TypeTotal, error) {
	query := `SELECT d.device_type AS device_type, SUM(e.energy_consumed) AS total
		FROM energy_usage e
		JOIN devices d ON d.id = e.device_id
		WHERE e.recorded_at >= ? AND e.recorded_at < ?`
	args := []any{w.Start.UTC(), w.End.UTC()}
	if roomID != nil {
		query += ` AND e.room_id = ?`
		args = append(args, *roomID)
	}
	query += ` GROUP BY d.device_type ORDER BY d.device_type`

	var rows []energydomain.TypeTotal
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
