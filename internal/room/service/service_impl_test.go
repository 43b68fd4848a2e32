package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomwatt/internal/clock"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
	"github.com/smallbiznis/roomwatt/internal/room/repository"
	"github.com/smallbiznis/roomwatt/pkg/db"
	"go.uber.org/zap"
)

func setupRoomService(t *testing.T) roomdomain.Service {
	t.Helper()
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&roomdomain.Room{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestCreateAndGetRoom(t *testing.T) {
	svc := setupRoomService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, roomdomain.CreateRequest{RoomNumber: " 101 ", Description: "Double room, garden view"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.RoomNumber != "101" || created.Status != roomdomain.StatusAvailable {
		t.Fatalf("unexpected room: %+v", created)
	}
	if created.Capacity != 2 {
		t.Fatalf("expected capacity 2, got %d", created.Capacity)
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RoomNumber != "101" {
		t.Fatalf("expected room 101, got %s", got.RoomNumber)
	}
}

func TestCreateRoomRejectsDuplicateNumber(t *testing.T) {
	svc := setupRoomService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, roomdomain.CreateRequest{RoomNumber: "102"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, roomdomain.CreateRequest{RoomNumber: "102"}); !errors.Is(err, roomdomain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateRoomValidatesInput(t *testing.T) {
	svc := setupRoomService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, roomdomain.CreateRequest{RoomNumber: "  "}); !errors.Is(err, roomdomain.ErrInvalidRoomNumber) {
		t.Fatalf("expected ErrInvalidRoomNumber, got %v", err)
	}
	if _, err := svc.Create(ctx, roomdomain.CreateRequest{RoomNumber: "103", Status: "flooded"}); !errors.Is(err, roomdomain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	svc := setupRoomService(t)

	if _, err := svc.GetByID(context.Background(), "12345"); !errors.Is(err, roomdomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "abc"); !errors.Is(err, roomdomain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestListRoomsOrderedByNumber(t *testing.T) {
	svc := setupRoomService(t)
	ctx := context.Background()

	for _, number := range []string{"201", "105", "110"} {
		if _, err := svc.Create(ctx, roomdomain.CreateRequest{RoomNumber: number}); err != nil {
			t.Fatalf("create %s: %v", number, err)
		}
	}

	rooms, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rooms) != 3 || rooms[0].RoomNumber != "105" || rooms[2].RoomNumber != "201" {
		t.Fatalf("unexpected order: %+v", rooms)
	}
}
