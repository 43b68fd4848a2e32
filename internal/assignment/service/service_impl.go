package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	assignmentdomain "github.com/smallbiznis/roomwatt/internal/assignment/domain"
	"github.com/smallbiznis/roomwatt/internal/ratelimit"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        assignmentdomain.Repository
	RoomRepo    roomdomain.Repository
	AccountRepo accountdomain.Repository
	RoomLock    *ratelimit.RoomLock `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        assignmentdomain.Repository
	roomRepo    roomdomain.Repository
	accountRepo accountdomain.Repository
	roomLock    *ratelimit.RoomLock
}

func New(p Params) assignmentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("assignment.service"),
		repo:        p.Repo,
		roomRepo:    p.RoomRepo,
		accountRepo: p.AccountRepo,
		roomLock:    p.RoomLock,
	}
}

func (s *Service) ListAssignments(ctx context.Context) ([]assignmentdomain.Assignment, error) {
	rows, err := s.repo.ListAssignments(ctx, s.db)
	if err != nil {
		return nil, err
	}

	items := make([]assignmentdomain.Assignment, 0, len(rows))
	for _, row := range rows {
		item := assignmentdomain.Assignment{
			UserID:     row.UserID.String(),
			Username:   row.Username,
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			RoomNumber: row.RoomNumber,
			Status:     row.Status,
		}
		if row.RoomID != nil {
			item.RoomID = row.RoomID.String()
		}
		if row.Description != nil {
			item.Description = *row.Description
		}
		items = append(items, item)
	}
	return items, nil
}

// RoomsWithUsers lists every room with the display names of its active
// residents.
func (s *Service) RoomsWithUsers(ctx context.Context) ([]assignmentdomain.RoomOccupancy, error) {
	rows, err := s.repo.ListOccupants(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var rooms []assignmentdomain.RoomOccupancy
	index := make(map[snowflake.ID]int)
	for _, row := range rows {
		i, ok := index[row.RoomID]
		if !ok {
			rooms = append(rooms, assignmentdomain.RoomOccupancy{
				RoomID:      row.RoomID.String(),
				RoomNumber:  row.RoomNumber,
				Description: row.Description,
				Capacity:    roomdomain.CapacityFor(row.Description),
				Residents:   []string{},
			})
			i = len(rooms) - 1
			index[row.RoomID] = i
		}
		if row.UserID == nil {
			continue
		}
		rooms[i].Residents = append(rooms[i].Residents, displayName(row))
		rooms[i].ResidentCount++
	}
	if rooms == nil {
		rooms = []assignmentdomain.RoomOccupancy{}
	}
	return rooms, nil
}

func (s *Service) UserRoom(ctx context.Context, userID string) (*roomdomain.Response, error) {
	id, err := parseID(userID, assignmentdomain.ErrInvalidUser)
	if err != nil {
		return nil, err
	}

	roomNumber, err := s.repo.ActiveRoomNumber(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if roomNumber == nil {
		return nil, assignmentdomain.ErrNotAssigned
	}
	room, err := s.roomRepo.FindByNumber(ctx, s.db, *roomNumber)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, assignmentdomain.ErrNotAssigned
	}

	return &roomdomain.Response{
		ID:          room.ID.String(),
		RoomNumber:  room.RoomNumber,
		Description: room.Description,
		Status:      room.Status,
		Capacity:    room.Capacity(),
		CreatedAt:   room.CreatedAt,
	}, nil
}

// UsersByRoom returns an empty list for an unknown room.
func (s *Service) UsersByRoom(ctx context.Context, roomID string) ([]assignmentdomain.Resident, error) {
	id, err := parseID(roomID, assignmentdomain.ErrInvalidRoom)
	if err != nil {
		return nil, err
	}
	room, err := s.roomRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return []assignmentdomain.Resident{}, nil
	}

	rows, err := s.repo.ListResidents(ctx, s.db, room.RoomNumber)
	if err != nil {
		return nil, err
	}
	residents := make([]assignmentdomain.Resident, 0, len(rows))
	for _, row := range rows {
		residents = append(residents, assignmentdomain.Resident{
			UserID:    row.UserID.String(),
			Username:  row.Username,
			Email:     row.Email,
			Role:      accountdomain.Role(row.Role).String(),
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Status:    row.Status,
		})
	}
	return residents, nil
}

func (s *Service) Assign(ctx context.Context, userID string, req assignmentdomain.AssignRequest) error {
	uid, err := parseID(userID, assignmentdomain.ErrInvalidUser)
	if err != nil {
		return err
	}
	rid, err := parseID(req.RoomID, assignmentdomain.ErrInvalidRoom)
	if err != nil {
		return err
	}

	room, err := s.roomRepo.FindByID(ctx, s.db, rid)
	if err != nil {
		return err
	}
	if room == nil {
		return assignmentdomain.ErrRoomNotFound
	}
	user, err := s.accountRepo.FindByID(ctx, s.db, uid)
	if err != nil {
		return err
	}
	if user == nil {
		return assignmentdomain.ErrUserNotFound
	}

	unlock, err := s.lockRoom(ctx, rid)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		occupied, err := s.repo.CountActive(ctx, tx, room.RoomNumber, uid)
		if err != nil {
			return err
		}
		if occupied >= int64(room.Capacity()) {
			return assignmentdomain.ErrRoomAtCapacity
		}

		details, err := s.repo.FindDetails(ctx, tx, uid)
		if err != nil {
			return err
		}
		if details == nil {
			roomNumber := room.RoomNumber
			return s.repo.InsertDetails(ctx, tx, &assignmentdomain.Details{
				UserID:     uid,
				RoomNumber: &roomNumber,
				Status:     assignmentdomain.StatusActive,
			})
		}
		return s.repo.SetRoom(ctx, tx, uid, room.RoomNumber)
	})
	if err != nil {
		return err
	}

	s.log.Info("room assigned",
		zap.String("user_id", uid.String()),
		zap.String("room_id", rid.String()),
		zap.String("room_number", room.RoomNumber),
	)
	return nil
}

func (s *Service) Remove(ctx context.Context, userID string) error {
	uid, err := parseID(userID, assignmentdomain.ErrInvalidUser)
	if err != nil {
		return err
	}
	removed, err := s.repo.ClearRoom(ctx, s.db, uid)
	if err != nil {
		return err
	}
	if !removed {
		return assignmentdomain.ErrNotAssigned
	}
	s.log.Info("room assignment removed", zap.String("user_id", uid.String()))
	return nil
}

// lockRoom serializes capacity checks for one room across replicas. Without
// Redis it is a no-op and the transaction alone guards the write.
func (s *Service) lockRoom(ctx context.Context, roomID snowflake.ID) (func(), error) {
	if s.roomLock == nil {
		return func() {}, nil
	}
	lease, err := s.roomLock.Acquire(ctx, roomID)
	if errors.Is(err, ratelimit.ErrRoomLockHeld) {
		return nil, assignmentdomain.ErrAssignmentBusy
	}
	if err != nil {
		s.log.Warn("assignment lock unavailable", zap.String("room_id", roomID.String()), zap.Error(err))
		return func() {}, nil
	}
	return func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("assignment lock release failed", zap.String("room_id", roomID.String()), zap.Error(err))
		}
	}, nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, invalid
	}
	return id, nil
}

func displayName(row assignmentdomain.OccupantRow) string {
	var parts []string
	if row.FirstName != nil && strings.TrimSpace(*row.FirstName) != "" {
		parts = append(parts, strings.TrimSpace(*row.FirstName))
	}
	if row.LastName != nil && strings.TrimSpace(*row.LastName) != "" {
		parts = append(parts, strings.TrimSpace(*row.LastName))
	}
	if len(parts) == 0 && row.Username != nil {
		return *row.Username
	}
	return strings.Join(parts, " ")
}
