package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	"github.com/smallbiznis/roomwatt/internal/account/session"
	assignmentdomain "github.com/smallbiznis/roomwatt/internal/assignment/domain"
	"github.com/smallbiznis/roomwatt/internal/authorization"
	"github.com/smallbiznis/roomwatt/internal/config"
	energydomain "github.com/smallbiznis/roomwatt/internal/energy/domain"
	"github.com/smallbiznis/roomwatt/internal/observability"
	"github.com/smallbiznis/roomwatt/internal/ratelimit"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
	usagedomain "github.com/smallbiznis/roomwatt/internal/usage/domain"
	"github.com/smallbiznis/roomwatt/internal/usage/liveevents"
	"go.uber.org/zap"
)

type fakeEnergyService struct {
	lastSummary energydomain.SummaryRequest
	lastSeries  energydomain.SeriesRequest
	err         error
}

func (f *fakeEnergyService) Series(ctx context.Context, req energydomain.SeriesRequest) (*energydomain.SeriesResult, error) {
	f.lastSeries = req
	if f.err != nil {
		return nil, f.err
	}
	return &energydomain.SeriesResult{RoomID: req.RoomID, Period: energydomain.PeriodDay, Points: []energydomain.SeriesPoint{{Bucket: 0, Energy: 1.5}}}, nil
}

func (f *fakeEnergyService) Summary(ctx context.Context, req energydomain.SummaryRequest) (*energydomain.SummaryResult, error) {
	f.lastSummary = req
	if f.err != nil {
		return nil, f.err
	}
	return &energydomain.SummaryResult{Total: 6.5, Average: 2.17, Peak: 3}, nil
}

func (f *fakeEnergyService) Compare(ctx context.Context, req energydomain.SummaryRequest) (*energydomain.ComparisonResult, error) {
	f.lastSummary = req
	if f.err != nil {
		return nil, f.err
	}
	return &energydomain.ComparisonResult{Current: 6.5, Previous: 4, Difference: 2.5, PercentageChange: 62.5}, nil
}

func (f *fakeEnergyService) ByDeviceType(ctx context.Context, req energydomain.SummaryRequest) (energydomain.Breakdown, error) {
	f.lastSummary = req
	if f.err != nil {
		return nil, f.err
	}
	return energydomain.Breakdown{"light": 6.5}, nil
}

type fakeAccountService struct {
	accountdomain.Service
}

func (f *fakeAccountService) Authenticate(ctx context.Context, rawToken string) (*accountdomain.Principal, error) {
	switch rawToken {
	case "resident-token":
		return &accountdomain.Principal{UserID: snowflake.ID(41), Username: "alice", Role: accountdomain.RoleResident}, nil
	case "admin-token":
		return &accountdomain.Principal{UserID: snowflake.ID(1), Username: "admin", Role: accountdomain.RoleAdmin}, nil
	default:
		return nil, accountdomain.ErrInvalidSession
	}
}

func (f *fakeAccountService) List(ctx context.Context) ([]accountdomain.UserView, error) {
	return []accountdomain.UserView{{ID: "1", Username: "admin", Role: "admin", RoleID: 4}}, nil
}

func (f *fakeAccountService) Login(ctx context.Context, req accountdomain.LoginRequest) (*accountdomain.LoginResult, error) {
	if req.Username != "admin" || req.Password != "admin123" {
		return nil, accountdomain.ErrInvalidCredentials
	}
	return &accountdomain.LoginResult{
		User:      accountdomain.UserView{ID: "1", Username: "admin", Role: "admin", RoleID: 4},
		RawToken:  "admin-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

// fakeAuthorizer only lets admins manage users.
type fakeAuthorizer struct{}

func (fakeAuthorizer) Authorize(ctx context.Context, role accountdomain.Role, object, action string) error {
	if object == authorization.ObjectUser && role != accountdomain.RoleAdmin {
		return authorization.ErrForbidden
	}
	return nil
}

type fakeRoomService struct {
	roomdomain.Service
}

func (f *fakeRoomService) GetByID(ctx context.Context, id string) (*roomdomain.Response, error) {
	if id != "101" {
		return nil, roomdomain.ErrNotFound
	}
	return &roomdomain.Response{ID: "101", RoomNumber: "101", Capacity: 1}, nil
}

type fakeAssignmentService struct {
	assignmentdomain.Service
}

func (f *fakeAssignmentService) Assign(ctx context.Context, userID string, req assignmentdomain.AssignRequest) error {
	return assignmentdomain.ErrRoomAtCapacity
}

type fakeUsageService struct {
	usagedomain.Service
	recorded int
}

func (f *fakeUsageService) Record(ctx context.Context, req usagedomain.RecordRequest) (*usagedomain.Response, error) {
	f.recorded++
	return &usagedomain.Response{ID: "9", DeviceID: req.DeviceID, RoomID: "101", EnergyConsumed: req.EnergyConsumed}, nil
}

type testServer struct {
	engine *gin.Engine
	energy *fakeEnergyService
	usage  *fakeUsageService
	hub    *liveevents.Hub
}

func newTestServer(t *testing.T, cfg config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	limiter, err := ratelimit.NewReadingsLimiter(cfg, nil)
	if err != nil {
		t.Fatalf("readings limiter: %v", err)
	}

	ts := &testServer{
		engine: NewEngine(observability.Config{}, nil),
		energy: &fakeEnergyService{},
		usage:  &fakeUsageService{},
		hub:    liveevents.NewHub(),
	}
	NewServer(ServerParams{
		Gin:             ts.engine,
		Cfg:             cfg,
		Log:             zap.NewNop(),
		Sessions:        session.NewManager(cfg),
		AccountSvc:      &fakeAccountService{},
		AuthzSvc:        fakeAuthorizer{},
		RoomSvc:         &fakeRoomService{},
		UsageSvc:        ts.usage,
		EnergySvc:       ts.energy,
		AssignmentSvc:   &fakeAssignmentService{},
		LiveReadings:    ts.hub,
		ReadingsLimiter: limiter,
	})
	return ts
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&payload).Encode(body)
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func openConfig() config.Config {
	return config.Config{Environment: "development"}
}

func TestRoomEnergySummaryPassesQuery(t *testing.T) {
	ts := newTestServer(t, openConfig())

	rec := ts.do(http.MethodGet, "/api/rooms/101/energy/summary?period=month&date=2024-02-10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ts.energy.lastSummary.RoomID != "101" || ts.energy.lastSummary.Period != "month" || ts.energy.lastSummary.Date != "2024-02-10" {
		t.Fatalf("unexpected request %+v", ts.energy.lastSummary)
	}

	var resp struct {
		Data energydomain.SummaryResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Total != 6.5 || resp.Data.Average != 2.17 || resp.Data.Peak != 3 {
		t.Fatalf("unexpected summary %+v", resp.Data)
	}
}

func TestAllRoomsComparisonUsesEmptyRoom(t *testing.T) {
	ts := newTestServer(t, openConfig())
	ts.energy.lastSummary.RoomID = "stale"

	rec := ts.do(http.MethodGet, "/api/energy/comparison", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ts.energy.lastSummary.RoomID != "" || ts.energy.lastSummary.Period != "" {
		t.Fatalf("expected all rooms with default period, got %+v", ts.energy.lastSummary)
	}
}

func TestEnergyErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
		code string
	}{
		{name: "invalid period", err: energydomain.ErrInvalidPeriod, want: http.StatusBadRequest, code: "validation_error"},
		{name: "unknown room", err: energydomain.ErrNotFound, want: http.StatusNotFound, code: "not_found"},
		{name: "storage failure", err: energydomain.WrapStorage("series", context.DeadlineExceeded), want: http.StatusInternalServerError, code: "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, openConfig())
			ts.energy.err = tc.err

			rec := ts.do(http.MethodGet, "/api/rooms/101/energy?period=week", "", nil)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if got := decodeError(t, rec).Type; got != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, got)
			}
		})
	}
}

func TestEnforcedAuthRequiresSession(t *testing.T) {
	cfg := openConfig()
	cfg.Auth.Enforce = true
	ts := newTestServer(t, cfg)

	if rec := ts.do(http.MethodGet, "/api/rooms/101/energy/by-device-type", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/api/rooms/101/energy/by-device-type", "bogus", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an unknown session, got %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/api/rooms/101/energy/by-device-type", "resident-token", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected resident to view energy, got %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/users", "resident-token", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected resident to be forbidden from users, got %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/users", "admin-token", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected admin to list users, got %d", rec.Code)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t, openConfig())

	rec := ts.do(http.MethodPost, "/users/login", "", map[string]string{"username": "admin", "password": "admin123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cookie := rec.Header().Get("Set-Cookie"); !strings.Contains(cookie, session.DefaultCookieName+"=admin-token") {
		t.Fatalf("expected session cookie, got %q", cookie)
	}

	rec = ts.do(http.MethodPost, "/users/login", "", map[string]string{"username": "admin", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestAssignFullRoomReturnsConflict(t *testing.T) {
	ts := newTestServer(t, openConfig())

	rec := ts.do(http.MethodPost, "/api/users/41/room", "", map[string]string{"room_id": "101"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if msg := decodeError(t, rec).Message; msg != "room is already at capacity" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRecordReadingIsRateLimitedPerDevice(t *testing.T) {
	cfg := openConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, ReadingsPerSecond: 0.5, ReadingsBurst: 1}
	ts := newTestServer(t, cfg)
	body := map[string]float64{"energy_consumed": 0.25}

	if rec := ts.do(http.MethodPost, "/api/devices/7/readings", "", body); rec.Code != http.StatusCreated {
		t.Fatalf("expected first reading to pass, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := ts.do(http.MethodPost, "/api/devices/7/readings", "", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	if rec := ts.do(http.MethodPost, "/api/devices/8/readings", "", body); rec.Code != http.StatusCreated {
		t.Fatalf("expected another device to pass, got %d", rec.Code)
	}
	if ts.usage.recorded != 2 {
		t.Fatalf("expected 2 stored readings, got %d", ts.usage.recorded)
	}
}

func TestRecordReadingSkipsLimiterForMalformedDeviceID(t *testing.T) {
	cfg := openConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, ReadingsPerSecond: 0.5, ReadingsBurst: 1}
	ts := newTestServer(t, cfg)
	body := map[string]float64{"energy_consumed": 0.25}

	for i := 0; i < 3; i++ {
		rec := ts.do(http.MethodPost, "/api/devices/not-a-device/readings", "", body)
		if rec.Code == http.StatusTooManyRequests || rec.Code == http.StatusServiceUnavailable {
			t.Fatalf("request %d: malformed id must reach the handler, got %d", i, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "" {
			t.Fatalf("request %d: expected no rate limit headers", i)
		}
	}
}

func TestRecordReadingRequiresEnergy(t *testing.T) {
	ts := newTestServer(t, openConfig())

	rec := ts.do(http.MethodPost, "/api/devices/7/readings", "", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ts.usage.recorded != 0 {
		t.Fatal("expected nothing to be stored")
	}
}

func TestStreamRoomReadingsSendsBacklog(t *testing.T) {
	ts := newTestServer(t, openConfig())
	ts.hub.Publish(liveevents.Reading{ID: "500", RoomID: "101", DeviceID: "7", EnergyConsumed: 0.4, Source: liveevents.SourceAPI})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/101/energy/live", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: reading\nid: 500\n") || !strings.Contains(body, `"device_id":"7"`) {
		t.Fatalf("expected backlog event, got %q", body)
	}
	if ts.hub.Subscribers("101") != 0 {
		t.Fatal("expected subscription to be closed")
	}
}

func TestStreamUnknownRoomIsNotFound(t *testing.T) {
	ts := newTestServer(t, openConfig())

	rec := ts.do(http.MethodGet, "/api/rooms/999/energy/live", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTestRoutesHiddenInProduction(t *testing.T) {
	cfg := openConfig()
	cfg.Environment = "production"
	ts := newTestServer(t, cfg)

	rec := ts.do(http.MethodPost, "/api/test/rooms/101/devices", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, openConfig())

	rec := ts.do(http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}
