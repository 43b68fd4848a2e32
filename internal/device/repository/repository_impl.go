package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	devicedomain "github.com/smallbiznis/roomwatt/internal/device/domain"
	"gorm.io/gorm"
)

const selectWithStatus = `SELECT d.id, d.room_id, d.device_type, d.device_name, d.created_at,
	ds.status AS status, ds.recorded_at AS last_updated
	FROM devices d
	LEFT JOIN device_status ds
	  ON ds.id = (SELECT MAX(s.id) FROM device_status s WHERE s.device_id = d.id)`

type repo struct{}

func Provide() devicedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, device *devicedomain.Device) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO devices (id, room_id, device_type, device_name, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		device.ID,
		device.RoomID,
		device.DeviceType,
		device.DeviceName,
		device.CreatedAt,
	).Error
}

func (r *repo) InsertStatus(ctx context.Context, db *gorm.DB, event *devicedomain.StatusEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO device_status (id, device_id, status, recorded_at) VALUES (?, ?, ?, ?)`,
		event.ID,
		event.DeviceID,
		event.Status,
		event.RecordedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*devicedomain.Device, error) {
	var device devicedomain.Device
	err := db.WithContext(ctx).Raw(
		`SELECT id, room_id, device_type, device_name, created_at
		 FROM devices WHERE id = ?`,
		id,
	).Scan(&device).Error
	if err != nil {
		return nil, err
	}
	if device.ID == 0 {
		return nil, nil
	}
	return &device, nil
}

func (r *repo) ListByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) ([]devicedomain.DeviceWithStatus, error) {
	var devices []devicedomain.DeviceWithStatus
	err := db.WithContext(ctx).Raw(
		selectWithStatus+` WHERE d.room_id = ? ORDER BY d.id ASC`,
		roomID,
	).Scan(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]devicedomain.DeviceWithStatus, error) {
	var devices []devicedomain.DeviceWithStatus
	err := db.WithContext(ctx).Raw(
		selectWithStatus+` WHERE ds.status IN (?, ?) ORDER BY d.id ASC`,
		devicedomain.StatusOn,
		devicedomain.StatusOpen,
	).Scan(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *repo) History(ctx context.Context, db *gorm.DB, deviceID snowflake.ID, limit int) ([]devicedomain.StatusEvent, error) {
	var events []devicedomain.StatusEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, device_id, status, recorded_at
		 FROM device_status WHERE device_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		deviceID,
		limit,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var deleted bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM device_status WHERE device_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM energy_usage WHERE device_id = ?`, id).Error; err != nil {
			return err
		}
		res := tx.Exec(`DELETE FROM devices WHERE id = ?`, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
