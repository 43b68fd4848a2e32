package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	accountrepo "github.com/smallbiznis/roomwatt/internal/account/repository"
	assignmentdomain "github.com/smallbiznis/roomwatt/internal/assignment/domain"
	"github.com/smallbiznis/roomwatt/internal/assignment/repository"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
	roomrepo "github.com/smallbiznis/roomwatt/internal/room/repository"
	"github.com/smallbiznis/roomwatt/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc    assignmentdomain.Service
	db     *gorm.DB
	node   *snowflake.Node
	single roomdomain.Room
	double roomdomain.Room
}

func setupAssignmentService(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&roomdomain.Room{}, &accountdomain.User{}, &assignmentdomain.Details{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	f := &fixture{db: conn, node: node}
	f.single = f.addRoom(t, "101", "Single room")
	f.double = f.addRoom(t, "102", "Double room with balcony")

	f.svc = New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		Repo:        repository.Provide(),
		RoomRepo:    roomrepo.Provide(),
		AccountRepo: accountrepo.Provide(),
	})
	return f
}

func (f *fixture) addRoom(t *testing.T, number, description string) roomdomain.Room {
	t.Helper()
	room := roomdomain.Room{ID: f.node.Generate(), RoomNumber: number, Description: description, Status: roomdomain.StatusAvailable, CreatedAt: testNow}
	if err := roomrepo.Provide().Insert(context.Background(), f.db, &room); err != nil {
		t.Fatalf("insert room: %v", err)
	}
	return room
}

func (f *fixture) addUser(t *testing.T, username string) string {
	t.Helper()
	user := accountdomain.User{
		ID:           f.node.Generate(),
		Username:     username,
		PasswordHash: "x",
		Role:         accountdomain.RoleResident,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	if err := accountrepo.Provide().Insert(context.Background(), f.db, &user); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return user.ID.String()
}

func TestAssignRespectsCapacity(t *testing.T) {
	f := setupAssignmentService(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	carol := f.addUser(t, "carol")
	dave := f.addUser(t, "dave")

	if err := f.svc.Assign(ctx, alice, assignmentdomain.AssignRequest{RoomID: f.single.ID.String()}); err != nil {
		t.Fatalf("assign alice: %v", err)
	}
	err := f.svc.Assign(ctx, bob, assignmentdomain.AssignRequest{RoomID: f.single.ID.String()})
	if !errors.Is(err, assignmentdomain.ErrRoomAtCapacity) {
		t.Fatalf("expected capacity error for single room, got %v", err)
	}
	if err.Error() != "room is already at capacity" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	for _, user := range []string{bob, carol} {
		if err := f.svc.Assign(ctx, user, assignmentdomain.AssignRequest{RoomID: f.double.ID.String()}); err != nil {
			t.Fatalf("assign to double room: %v", err)
		}
	}
	if err := f.svc.Assign(ctx, dave, assignmentdomain.AssignRequest{RoomID: f.double.ID.String()}); !errors.Is(err, assignmentdomain.ErrRoomAtCapacity) {
		t.Fatalf("expected double room to hold only 2, got %v", err)
	}

	// Re-assigning a resident to their own room does not count them twice.
	if err := f.svc.Assign(ctx, alice, assignmentdomain.AssignRequest{RoomID: f.single.ID.String()}); err != nil {
		t.Fatalf("reassign alice: %v", err)
	}
	if err := f.svc.Assign(ctx, carol, assignmentdomain.AssignRequest{RoomID: f.double.ID.String()}); err != nil {
		t.Fatalf("reassign carol: %v", err)
	}
}

func TestAssignMovesUserBetweenRooms(t *testing.T) {
	f := setupAssignmentService(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")

	if err := f.svc.Assign(ctx, alice, assignmentdomain.AssignRequest{RoomID: f.single.ID.String()}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := f.svc.Assign(ctx, alice, assignmentdomain.AssignRequest{RoomID: f.double.ID.String()}); err != nil {
		t.Fatalf("move: %v", err)
	}

	room, err := f.svc.UserRoom(ctx, alice)
	if err != nil {
		t.Fatalf("user room: %v", err)
	}
	if room.RoomNumber != "102" || room.Capacity != 2 {
		t.Fatalf("expected room 102, got %+v", room)
	}

	residents, err := f.svc.UsersByRoom(ctx, f.single.ID.String())
	if err != nil {
		t.Fatalf("users by room: %v", err)
	}
	if len(residents) != 0 {
		t.Fatalf("expected the single room to be empty, got %+v", residents)
	}
}

func TestAssignValidatesTargets(t *testing.T) {
	f := setupAssignmentService(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")

	cases := []struct {
		name   string
		userID string
		roomID string
		want   error
	}{
		{name: "bad user", userID: "x", roomID: f.single.ID.String(), want: assignmentdomain.ErrInvalidUser},
		{name: "missing room id", userID: alice, roomID: "", want: assignmentdomain.ErrInvalidRoom},
		{name: "unknown room", userID: alice, roomID: f.node.Generate().String(), want: assignmentdomain.ErrRoomNotFound},
		{name: "unknown user", userID: f.node.Generate().String(), roomID: f.single.ID.String(), want: assignmentdomain.ErrUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.Assign(ctx, tc.userID, assignmentdomain.AssignRequest{RoomID: tc.roomID})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRemoveClearsRoomNumber(t *testing.T) {
	f := setupAssignmentService(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")

	if err := f.svc.Remove(ctx, alice); !errors.Is(err, assignmentdomain.ErrNotAssigned) {
		t.Fatalf("expected not assigned, got %v", err)
	}
	if err := f.svc.Assign(ctx, alice, assignmentdomain.AssignRequest{RoomID: f.single.ID.String()}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := f.svc.Remove(ctx, alice); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := f.svc.UserRoom(ctx, alice); !errors.Is(err, assignmentdomain.ErrNotAssigned) {
		t.Fatalf("expected no room after removal, got %v", err)
	}

	var details assignmentdomain.Details
	if err := f.db.First(&details, "user_id = ?", alice).Error; err != nil {
		t.Fatalf("load details: %v", err)
	}
	if details.RoomNumber != nil {
		t.Fatalf("expected NULL room number, got %q", *details.RoomNumber)
	}
}

func TestRoomsWithUsersAndAssignments(t *testing.T) {
	f := setupAssignmentService(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	for _, user := range []string{alice, bob} {
		if err := f.svc.Assign(ctx, user, assignmentdomain.AssignRequest{RoomID: f.double.ID.String()}); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}
	if err := f.db.Exec(`UPDATE user_details SET first_name = ?, last_name = ? WHERE user_id = ?`, "Alice", "Ng", alice).Error; err != nil {
		t.Fatalf("set names: %v", err)
	}

	rooms, err := f.svc.RoomsWithUsers(ctx)
	if err != nil {
		t.Fatalf("rooms with users: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].RoomNumber != "101" || rooms[0].ResidentCount != 0 || len(rooms[0].Residents) != 0 {
		t.Fatalf("expected empty room 101, got %+v", rooms[0])
	}
	if rooms[1].ResidentCount != 2 || rooms[1].Capacity != 2 {
		t.Fatalf("expected 2 residents in 102, got %+v", rooms[1])
	}
	names := map[string]bool{}
	for _, n := range rooms[1].Residents {
		names[n] = true
	}
	if !names["Alice Ng"] || !names["bob"] {
		t.Fatalf("unexpected resident names %v", rooms[1].Residents)
	}

	assignments, err := f.svc.ListAssignments(ctx)
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	if len(assignments) != 2 || assignments[0].RoomID != f.double.ID.String() {
		t.Fatalf("unexpected assignments %+v", assignments)
	}

	residents, err := f.svc.UsersByRoom(ctx, f.double.ID.String())
	if err != nil {
		t.Fatalf("users by room: %v", err)
	}
	if len(residents) != 2 || residents[0].Username != "alice" || residents[0].Role != "resident" {
		t.Fatalf("unexpected residents %+v", residents)
	}
}

func TestUsersByUnknownRoomIsEmpty(t *testing.T) {
	f := setupAssignmentService(t)

	residents, err := f.svc.UsersByRoom(context.Background(), f.node.Generate().String())
	if err != nil {
		t.Fatalf("users by room: %v", err)
	}
	if residents == nil || len(residents) != 0 {
		t.Fatalf("expected empty list, got %+v", residents)
	}
	if _, err := f.svc.UsersByRoom(context.Background(), "abc"); !errors.Is(err, assignmentdomain.ErrInvalidRoom) {
		t.Fatalf("expected invalid room, got %v", err)
	}
}
