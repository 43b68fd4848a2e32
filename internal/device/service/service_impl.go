package service

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomwatt/internal/cache"
	"github.com/smallbiznis/roomwatt/internal/clock"
	devicedomain "github.com/smallbiznis/roomwatt/internal/device/domain"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxHistoryLimit = 500

var testDevices = []struct {
	Type devicedomain.Type
	Name string
}{
	{Type: devicedomain.TypeLight, Name: "Ceiling Light"},
	{Type: devicedomain.TypeLight, Name: "Bedside Lamp"},
	{Type: devicedomain.TypeBlind, Name: "Window Blind"},
	{Type: devicedomain.TypeThermostat, Name: "Room Thermostat"},
	{Type: devicedomain.TypeOther, Name: "Smart TV"},
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     devicedomain.Repository
	RoomRepo roomdomain.Repository
	Cache    cache.EnergyCache `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     devicedomain.Repository
	roomRepo roomdomain.Repository
	cache    cache.EnergyCache
	coinFlip func() bool
}

func New(p Params) devicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("device.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		roomRepo: p.RoomRepo,
		cache:    p.Cache,
		coinFlip: func() bool { return rand.Float64() > 0.5 },
	}
}

func (s *Service) ListByRoom(ctx context.Context, roomID string) ([]devicedomain.Response, error) {
	id, err := s.requireRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByRoom(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) Add(ctx context.Context, req devicedomain.AddRequest) (*devicedomain.Response, error) {
	deviceType, ok := devicedomain.ParseType(req.DeviceType)
	if !ok {
		return nil, devicedomain.ErrInvalidType
	}
	name := strings.TrimSpace(req.DeviceName)
	if name == "" || len(name) > 128 {
		return nil, devicedomain.ErrInvalidName
	}
	roomID, err := s.requireRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	device, err := s.add(ctx, roomID, deviceType, name, devicedomain.StatusOff)
	if err != nil {
		return nil, err
	}
	return device, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*devicedomain.Response, error) {
	device, err := s.requireDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withStatus(ctx, device)
}

// SetStatus appends a status event; earlier events are kept as history.
func (s *Service) SetStatus(ctx context.Context, id string, status string) (*devicedomain.Response, error) {
	parsed, ok := devicedomain.ParseStatus(status)
	if !ok {
		return nil, devicedomain.ErrInvalidStatus
	}
	device, err := s.requireDevice(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.InsertStatus(ctx, s.db, s.newStatusEvent(device.ID, parsed)); err != nil {
		return nil, err
	}
	s.log.Debug("device status changed",
		zap.String("device_id", device.ID.String()),
		zap.String("status", string(parsed)),
	)
	return s.withStatus(ctx, device)
}

// Delete removes the device with its status history and readings, then
// retires the room's cached aggregates.
func (s *Service) Delete(ctx context.Context, id string) error {
	device, err := s.requireDevice(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, s.db, device.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return devicedomain.ErrNotFound
	}
	if s.cache != nil {
		if err := s.cache.InvalidateRoom(ctx, device.RoomID.String()); err != nil {
			s.log.Warn("energy cache invalidation failed",
				zap.String("room_id", device.RoomID.String()),
				zap.Error(err),
			)
		}
	}
	s.log.Info("device removed", zap.String("device_id", device.ID.String()))
	return nil
}

func (s *Service) History(ctx context.Context, id string, limit int) ([]devicedomain.StatusResponse, error) {
	device, err := s.requireDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = devicedomain.DefaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	events, err := s.repo.History(ctx, s.db, device.ID, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]devicedomain.StatusResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, devicedomain.StatusResponse{
			Status:     event.Status,
			RecordedAt: event.RecordedAt,
		})
	}
	return resp, nil
}

func (s *Service) ListActive(ctx context.Context) ([]devicedomain.Response, error) {
	items, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) SeedTestDevices(ctx context.Context, roomID string) ([]devicedomain.Response, error) {
	id, err := s.requireRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	created := make([]devicedomain.Response, 0, len(testDevices))
	for _, spec := range testDevices {
		status := devicedomain.StatusOff
		if s.coinFlip() {
			status = devicedomain.StatusOn
		}
		device, err := s.add(ctx, id, spec.Type, spec.Name, status)
		if err != nil {
			return nil, err
		}
		created = append(created, *device)
	}

	s.log.Info("test devices created", zap.String("room_id", id.String()), zap.Int("count", len(created)))
	return created, nil
}

// add inserts the device with an initial "off" event, then status if it differs.
func (s *Service) add(ctx context.Context, roomID snowflake.ID, deviceType devicedomain.Type, name string, status devicedomain.Status) (*devicedomain.Response, error) {
	device := &devicedomain.Device{
		ID:         s.genID.Generate(),
		RoomID:     roomID,
		DeviceType: deviceType,
		DeviceName: name,
		CreatedAt:  s.clock.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, device); err != nil {
			return err
		}
		if err := s.repo.InsertStatus(ctx, tx, s.newStatusEvent(device.ID, devicedomain.StatusOff)); err != nil {
			return err
		}
		if status != devicedomain.StatusOff {
			return s.repo.InsertStatus(ctx, tx, s.newStatusEvent(device.ID, status))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.withStatus(ctx, device)
}

func (s *Service) newStatusEvent(deviceID snowflake.ID, status devicedomain.Status) *devicedomain.StatusEvent {
	return &devicedomain.StatusEvent{
		ID:         s.genID.Generate(),
		DeviceID:   deviceID,
		Status:     status,
		RecordedAt: s.clock.Now().UTC(),
	}
}

func (s *Service) withStatus(ctx context.Context, device *devicedomain.Device) (*devicedomain.Response, error) {
	events, err := s.repo.History(ctx, s.db, device.ID, 1)
	if err != nil {
		return nil, err
	}
	item := devicedomain.DeviceWithStatus{Device: *device}
	if len(events) > 0 {
		item.Status = &events[0].Status
		item.LastUpdated = &events[0].RecordedAt
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) requireRoom(ctx context.Context, roomID string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(roomID))
	if err != nil || id <= 0 {
		return 0, devicedomain.ErrInvalidRoomID
	}
	room, err := s.roomRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return 0, err
	}
	if room == nil {
		return 0, devicedomain.ErrRoomNotFound
	}
	return id, nil
}

func (s *Service) requireDevice(ctx context.Context, id string) (*devicedomain.Device, error) {
	deviceID, err := devicedomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	device, err := s.repo.FindByID(ctx, s.db, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, devicedomain.ErrNotFound
	}
	return device, nil
}

func toResponses(items []devicedomain.DeviceWithStatus) []devicedomain.Response {
	resp := make([]devicedomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(item))
	}
	return resp
}

func toResponse(item devicedomain.DeviceWithStatus) devicedomain.Response {
	return devicedomain.Response{
		ID:          item.ID.String(),
		RoomID:      item.RoomID.String(),
		DeviceType:  item.DeviceType,
		DeviceName:  item.DeviceName,
		Status:      item.Status,
		LastUpdated: item.LastUpdated,
		CreatedAt:   item.CreatedAt,
	}
}
