package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomwatt/internal/cache"
	"github.com/smallbiznis/roomwatt/internal/clock"
	"github.com/smallbiznis/roomwatt/internal/config"
	energydomain "github.com/smallbiznis/roomwatt/internal/energy/domain"
	obsmetrics "github.com/smallbiznis/roomwatt/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opSeries    = "series"
	opSummary   = "summary"
	opCompare   = "compare"
	opBreakdown = "by_device_type"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	EnergyConfig *config.EnergyConfigHolder
	Repo         energydomain.Repository
	Cache        cache.EnergyCache
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

// Service computes read-only aggregates over the reading log. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	energyConfig *config.EnergyConfigHolder
	repo         energydomain.Repository
	cache        cache.EnergyCache
	metrics      *obsmetrics.Metrics
}

func New(p Params) energydomain.Service {
	energyCache := p.Cache
	if energyCache == nil {
		energyCache = cache.NewNoopEnergyCache()
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("energy.service"),
		clock:        p.Clock,
		energyConfig: p.EnergyConfig,
		repo:         p.Repo,
		cache:        energyCache,
		metrics:      p.Metrics,
	}
}

// query is a validated request resolved against the reference timezone.
type query struct {
	roomID *snowflake.ID
	kind   energydomain.PeriodKind
	window energydomain.Window
	now    time.Time
	policy config.EnergyCacheConfig
}

func (q query) roomKey() string {
	if q.roomID == nil {
		return ""
	}
	return q.roomID.String()
}

func (q query) cacheKey(op string) cache.EnergyKey {
	return cache.EnergyKey{
		Operation:   op,
		RoomID:      q.roomKey(),
		Period:      string(q.kind),
		WindowStart: q.window.Start,
	}
}

// resolve validates every input and checks the room before any reading is
// touched.
func (s *Service) resolve(ctx context.Context, roomID, period, date string, roomRequired bool) (query, error) {
	kind, err := energydomain.ParsePeriod(period)
	if err != nil {
		return query{}, err
	}

	var id *snowflake.ID
	if trimmed := strings.TrimSpace(roomID); trimmed != "" {
		parsed, err := snowflake.ParseString(trimmed)
		if err != nil || parsed <= 0 {
			return query{}, energydomain.ErrInvalidRoomID
		}
		id = &parsed
	} else if roomRequired {
		return query{}, energydomain.ErrInvalidRoomID
	}

	cfg := s.energyConfig.Get()
	loc := cfg.Location()
	asOf, err := energydomain.ParseDate(date, loc)
	if err != nil {
		return query{}, err
	}

	now := s.clock.Now()
	ref := now.In(loc)
	if asOf != nil {
		ref = *asOf
	}

	if id != nil {
		exists, err := s.repo.RoomExists(ctx, s.db, *id)
		if err != nil {
			return query{}, energydomain.WrapStorage("room lookup", err)
		}
		if !exists {
			return query{}, energydomain.ErrNotFound
		}
	}

	return query{
		roomID: id,
		kind:   kind,
		window: energydomain.CurrentWindow(kind, ref),
		now:    now,
		policy: cfg.Cache,
	}, nil
}

func (s *Service) Series(ctx context.Context, req energydomain.SeriesRequest) (*energydomain.SeriesResult, error) {
	q, err := s.resolve(ctx, req.RoomID, req.Period, req.Date, true)
	if err != nil {
		return nil, err
	}
	defer s.observe(ctx, opSeries, q.kind, time.Now())

	var cached energydomain.SeriesResult
	lookup, hit := s.loadCached(ctx, q.cacheKey(opSeries), &cached)
	if hit {
		return &cached, nil
	}

	rows, err := s.repo.ReadingsInWindow(ctx, s.db, *q.roomID, q.window)
	if err != nil {
		return nil, energydomain.WrapStorage("series", err)
	}

	result := &energydomain.SeriesResult{
		RoomID:      q.roomKey(),
		Period:      q.kind,
		WindowStart: q.window.Start,
		WindowEnd:   q.window.End,
		Points:      bucketize(q.kind, q.window, rows),
	}
	s.storeCached(ctx, q, lookup, result)
	return result, nil
}

func (s *Service) Summary(ctx context.Context, req energydomain.SummaryRequest) (*energydomain.SummaryResult, error) {
	q, err := s.resolve(ctx, req.RoomID, req.Period, req.Date, false)
	if err != nil {
		return nil, err
	}
	defer s.observe(ctx, opSummary, q.kind, time.Now())

	var cached energydomain.SummaryResult
	lookup, hit := s.loadCached(ctx, q.cacheKey(opSummary), &cached)
	if hit {
		return &cached, nil
	}

	result, err := s.summarize(ctx, q.roomID, q.window)
	if err != nil {
		return nil, err
	}
	s.storeCached(ctx, q, lookup, result)
	return result, nil
}

// Compare reports the current window against the one before it. The
// percentage change is 0 whenever the previous total is 0.
func (s *Service) Compare(ctx context.Context, req energydomain.SummaryRequest) (*energydomain.ComparisonResult, error) {
	q, err := s.resolve(ctx, req.RoomID, req.Period, req.Date, false)
	if err != nil {
		return nil, err
	}
	defer s.observe(ctx, opCompare, q.kind, time.Now())

	var cached energydomain.ComparisonResult
	lookup, hit := s.loadCached(ctx, q.cacheKey(opCompare), &cached)
	if hit {
		return &cached, nil
	}

	current, err := s.summarize(ctx, q.roomID, q.window)
	if err != nil {
		return nil, err
	}
	previous, err := s.summarize(ctx, q.roomID, energydomain.PreviousWindow(q.kind, q.window))
	if err != nil {
		return nil, err
	}

	result := compare(current.Total, previous.Total)
	s.storeCached(ctx, q, lookup, result)
	return result, nil
}

func (s *Service) ByDeviceType(ctx context.Context, req energydomain.SummaryRequest) (energydomain.Breakdown, error) {
	q, err := s.resolve(ctx, req.RoomID, req.Period, req.Date, true)
	if err != nil {
		return nil, err
	}
	defer s.observe(ctx, opBreakdown, q.kind, time.Now())

	var cached energydomain.Breakdown
	lookup, hit := s.loadCached(ctx, q.cacheKey(opBreakdown), &cached)
	if hit {
		return cached, nil
	}

	rows, err := s.repo.TotalsByDeviceType(ctx, s.db, q.roomID, q.window)
	if err != nil {
		return nil, energydomain.WrapStorage("by device type", err)
	}

	result := make(energydomain.Breakdown, len(rows))
	for _, row := range rows {
		result[row.DeviceType] = round2(row.Total)
	}
	s.storeCached(ctx, q, lookup, result)
	return result, nil
}

func (s *Service) summarize(ctx context.Context, roomID *snowflake.ID, w energydomain.Window) (*energydomain.SummaryResult, error) {
	row, err := s.repo.Summary(ctx, s.db, roomID, w)
	if err != nil {
		return nil, energydomain.WrapStorage("summary", err)
	}
	return &energydomain.SummaryResult{
		Total:   round2(row.Total),
		Average: round2(row.Average),
		Peak:    round2(row.Peak),
	}, nil
}

func compare(current, previous float64) *energydomain.ComparisonResult {
	current = round2(current)
	previous = round2(previous)
	difference := round2(current - previous)

	var change float64
	if previous > 0 {
		change = round2(difference / previous * 100)
	}
	return &energydomain.ComparisonResult{
		Current:          current,
		Previous:         previous,
		Difference:       difference,
		PercentageChange: change,
	}
}

// bucketize sums readings per bucket in the window's location. Every bucket
// of the window is present, empty ones as 0.
func bucketize(kind energydomain.PeriodKind, w energydomain.Window, rows []energydomain.TimedValue) []energydomain.SeriesPoint {
	first := energydomain.FirstBucket(kind)
	count := energydomain.BucketCount(kind, w)
	sums := make([]float64, count)

	loc := w.Start.Location()
	for _, row := range rows {
		idx := energydomain.BucketOf(kind, row.RecordedAt.In(loc)) - first
		if idx < 0 || idx >= count {
			continue
		}
		sums[idx] += row.EnergyConsumed
	}

	points := make([]energydomain.SeriesPoint, count)
	for i, sum := range sums {
		points[i] = energydomain.SeriesPoint{Bucket: first + i, Energy: round2(sum)}
	}
	return points
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		// Normalizes -0.
		return 0
	}
	return r
}

func (s *Service) loadCached(ctx context.Context, key cache.EnergyKey, dst any) (cache.Lookup, bool) {
	lookup, hit, err := s.cache.Load(ctx, key, dst)
	if err != nil {
		s.log.Warn("energy cache load failed", zap.String("operation", key.Operation), zap.Error(err))
		hit = false
	}
	s.metrics.RecordCacheLookup(ctx, key.Operation, hit)
	return lookup, hit
}

func (s *Service) storeCached(ctx context.Context, q query, lookup cache.Lookup, value any) {
	ttl := cache.TTLFor(q.policy, q.window.End, q.now)
	if err := s.cache.Store(ctx, lookup, value, ttl); err != nil {
		s.log.Warn("energy cache store failed", zap.String("operation", lookup.Key.Operation), zap.Error(err))
	}
}

func (s *Service) observe(ctx context.Context, op string, kind energydomain.PeriodKind, start time.Time) {
	s.metrics.ObserveAggregate(ctx, op, string(kind), time.Since(start))
}
