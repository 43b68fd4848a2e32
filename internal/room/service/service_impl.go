package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomwatt/internal/clock"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
	"github.com/smallbiznis/roomwatt/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  roomdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  roomdomain.Repository
}

func New(p Params) roomdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("room.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req roomdomain.CreateRequest) (*roomdomain.Response, error) {
	roomNumber := strings.TrimSpace(req.RoomNumber)
	if roomNumber == "" || len(roomNumber) > 32 {
		return nil, roomdomain.ErrInvalidRoomNumber
	}

	status := roomdomain.StatusAvailable
	if strings.TrimSpace(req.Status) != "" {
		parsed, ok := roomdomain.ParseStatus(req.Status)
		if !ok {
			return nil, roomdomain.ErrInvalidStatus
		}
		status = parsed
	}

	existing, err := s.repo.FindByNumber(ctx, s.db, roomNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, roomdomain.ErrAlreadyExists
	}

	room := &roomdomain.Room{
		ID:          s.genID.Generate(),
		RoomNumber:  roomNumber,
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, room); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, roomdomain.ErrAlreadyExists
		}
		return nil, err
	}

	s.log.Info("room created", zap.String("room_id", room.ID.String()), zap.String("room_number", roomNumber))
	return toResponse(room), nil
}

func (s *Service) List(ctx context.Context) ([]roomdomain.Response, error) {
	rooms, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]roomdomain.Response, 0, len(rooms))
	for i := range rooms {
		resp = append(resp, *toResponse(&rooms[i]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*roomdomain.Response, error) {
	roomID, err := roomdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}

	room, err := s.repo.FindByID(ctx, s.db, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, roomdomain.ErrNotFound
	}
	return toResponse(room), nil
}

func toResponse(room *roomdomain.Room) *roomdomain.Response {
	return &roomdomain.Response{
		ID:          room.ID.String(),
		RoomNumber:  room.RoomNumber,
		Description: room.Description,
		Status:      room.Status,
		Capacity:    room.Capacity(),
		CreatedAt:   room.CreatedAt,
	}
}
