package service

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomwatt/internal/cache"
	"github.com/smallbiznis/roomwatt/internal/clock"
	"github.com/smallbiznis/roomwatt/internal/config"
	devicedomain "github.com/smallbiznis/roomwatt/internal/device/domain"
	"github.com/smallbiznis/roomwatt/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/roomwatt/internal/observability/metrics"
	usagedomain "github.com/smallbiznis/roomwatt/internal/usage/domain"
	"github.com/smallbiznis/roomwatt/internal/usage/liveevents"
	"github.com/smallbiznis/roomwatt/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Readings may arrive slightly ahead of the server clock.
const maxClockSkew = time.Minute

const (
	testReadingMin = 0.1
	testReadingMax = 5.0
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	AppConfig  config.Config
	Repo       usagedomain.Repository
	DeviceRepo devicedomain.Repository
	Cache      cache.EnergyCache
	Hub        *liveevents.Hub
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	production bool
	repo       usagedomain.Repository
	deviceRepo devicedomain.Repository
	cache      cache.EnergyCache
	hub        *liveevents.Hub
	metrics    *obsmetrics.Metrics
	randFloat  func() float64
}

func NewService(p Params) usagedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("usage.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		production: p.AppConfig.IsProduction(),
		repo:       p.Repo,
		deviceRepo: p.DeviceRepo,
		cache:      p.Cache,
		hub:        p.Hub,
		metrics:    p.Metrics,
		randFloat:  rand.Float64,
	}
}

func (s *Service) Record(ctx context.Context, req usagedomain.RecordRequest) (*usagedomain.Response, error) {
	deviceID, err := parseID(req.DeviceID, usagedomain.ErrInvalidDevice)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(req.EnergyConsumed) || math.IsInf(req.EnergyConsumed, 0) || req.EnergyConsumed < 0 {
		return nil, usagedomain.ErrInvalidEnergy
	}

	now := s.clock.Now().UTC()
	recordedAt := now
	if req.RecordedAt != nil {
		if req.RecordedAt.IsZero() || req.RecordedAt.After(now.Add(maxClockSkew)) {
			return nil, usagedomain.ErrInvalidRecordedAt
		}
		recordedAt = req.RecordedAt.UTC()
	}

	device, err := s.deviceRepo.FindByID(ctx, s.db, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, usagedomain.ErrDeviceNotFound
	}

	reading := &usagedomain.Reading{
		ID:             s.genID.Generate(),
		DeviceID:       device.ID,
		RoomID:         device.RoomID,
		EnergyConsumed: req.EnergyConsumed,
		RecordedAt:     recordedAt,
		CreatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, reading); err != nil {
		return nil, err
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = liveevents.SourceAPI
	}
	s.afterInsert(ctx, device.RoomID, source, *reading)
	return toResponse(reading), nil
}

func (s *Service) GenerateTestReadings(ctx context.Context, req usagedomain.GenerateRequest) ([]usagedomain.Response, error) {
	if s.production {
		return nil, usagedomain.ErrTestDataDisabled
	}
	roomID, err := parseID(req.RoomID, usagedomain.ErrInvalidRoom)
	if err != nil {
		return nil, err
	}
	deviceID, err := parseID(req.DeviceID, usagedomain.ErrInvalidDevice)
	if err != nil {
		return nil, err
	}
	count := req.Count
	if count == 0 {
		count = usagedomain.DefaultTestReadings
	}
	if count < 0 || count > usagedomain.MaxTestReadings {
		return nil, usagedomain.ErrInvalidCount
	}

	device, err := s.deviceRepo.FindByID(ctx, s.db, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, usagedomain.ErrDeviceNotFound
	}
	if device.RoomID != roomID {
		return nil, usagedomain.ErrDeviceNotInRoom
	}

	now := s.clock.Now().UTC()
	readings := make([]usagedomain.Reading, 0, count)
	for i := 0; i < count; i++ {
		energy := testReadingMin + s.randFloat()*(testReadingMax-testReadingMin)
		readings = append(readings, usagedomain.Reading{
			ID:             s.genID.Generate(),
			DeviceID:       device.ID,
			RoomID:         roomID,
			EnergyConsumed: math.Round(energy*100) / 100,
			RecordedAt:     now.Add(-time.Duration(count-i) * time.Hour),
			CreatedAt:      now,
		})
	}
	if err := s.repo.InsertBatch(ctx, s.db, readings); err != nil {
		return nil, err
	}

	resp := make([]usagedomain.Response, 0, len(readings))
	for i := range readings {
		s.afterInsert(ctx, roomID, liveevents.SourceTestData, readings[i])
		resp = append(resp, *toResponse(&readings[i]))
	}
	logger.WithRoom(s.log, roomID.String()).Info("test readings generated",
		zap.String("device_id", device.ID.String()),
		zap.Int("count", count),
	)
	return resp, nil
}

func (s *Service) ListRecent(ctx context.Context, req usagedomain.ListRequest) (usagedomain.ListResponse, error) {
	deviceID, err := parseID(req.DeviceID, usagedomain.ErrInvalidDevice)
	if err != nil {
		return usagedomain.ListResponse{}, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = usagedomain.DefaultListLimit
	}
	if limit > usagedomain.MaxListLimit {
		limit = usagedomain.MaxListLimit
	}

	after, err := decodeListCursor(req.PageToken)
	if err != nil {
		return usagedomain.ListResponse{}, err
	}

	device, err := s.deviceRepo.FindByID(ctx, s.db, deviceID)
	if err != nil {
		return usagedomain.ListResponse{}, err
	}
	if device == nil {
		return usagedomain.ListResponse{}, usagedomain.ErrDeviceNotFound
	}

	rows, err := s.repo.ListByDevice(ctx, s.db, deviceID, after, limit+1)
	if err != nil {
		return usagedomain.ListResponse{}, err
	}
	rows, pageInfo, err := pagination.Trim(rows, limit, func(r usagedomain.Reading) pagination.Cursor {
		return pagination.Cursor{ID: r.ID.String(), Timestamp: r.RecordedAt.UTC().Format(time.RFC3339Nano)}
	})
	if err != nil {
		return usagedomain.ListResponse{}, err
	}

	readings := make([]usagedomain.Response, 0, len(rows))
	for i := range rows {
		readings = append(readings, *toResponse(&rows[i]))
	}
	return usagedomain.ListResponse{PageInfo: pageInfo, Readings: readings}, nil
}

// afterInsert retires cached aggregates and fans the reading out. Failures
// here never undo a stored reading.
func (s *Service) afterInsert(ctx context.Context, roomID snowflake.ID, source string, reading usagedomain.Reading) {
	if s.cache != nil {
		if err := s.cache.InvalidateRoom(ctx, roomID.String()); err != nil {
			logger.WithRoom(s.log, roomID.String()).Warn("energy cache invalidation failed", zap.Error(err))
		}
	}
	s.hub.Publish(liveevents.Reading{
		ID:             reading.ID.String(),
		RoomID:         roomID.String(),
		DeviceID:       reading.DeviceID.String(),
		EnergyConsumed: reading.EnergyConsumed,
		RecordedAt:     reading.RecordedAt.UTC().Format(time.RFC3339),
		Source:         source,
	})
	s.metrics.RecordReading(ctx, source, reading.EnergyConsumed)
}

func decodeListCursor(token string) (*usagedomain.ListCursor, error) {
	cursor, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	if cursor == nil {
		return nil, nil
	}
	id, err := snowflake.ParseString(cursor.ID)
	if err != nil {
		return nil, pagination.ErrInvalidPageToken
	}
	ts, err := time.Parse(time.RFC3339Nano, cursor.Timestamp)
	if err != nil {
		return nil, pagination.ErrInvalidPageToken
	}
	return &usagedomain.ListCursor{RecordedAt: ts.UTC(), ID: id}, nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, invalid
	}
	return id, nil
}

func toResponse(r *usagedomain.Reading) *usagedomain.Response {
	return &usagedomain.Response{
		ID:             r.ID.String(),
		DeviceID:       r.DeviceID.String(),
		RoomID:         r.RoomID.String(),
		EnergyConsumed: r.EnergyConsumed,
		RecordedAt:     r.RecordedAt,
	}
}
