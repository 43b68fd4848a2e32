package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes the energy domain instruments.
type Metrics struct {
	readingsRecorded metric.Int64Counter
	energyRecorded   metric.Float64Counter
	aggregateLatency metric.Float64Histogram
	cacheLookups     metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics exporter ready",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New registers the domain instruments on provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "roomwatt"
	}
	meter := provider.Meter(name)

	readingsRecorded, err := meter.Int64Counter("roomwatt_readings_recorded_total")
	if err != nil {
		return nil, err
	}
	energyRecorded, err := meter.Float64Counter("roomwatt_energy_recorded_kwh_total")
	if err != nil {
		return nil, err
	}
	aggregateLatency, err := meter.Float64Histogram("roomwatt_aggregate_duration_ms")
	if err != nil {
		return nil, err
	}
	cacheLookups, err := meter.Int64Counter("roomwatt_energy_cache_lookups_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("roomwatt_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		readingsRecorded: readingsRecorded,
		energyRecorded:   energyRecorded,
		aggregateLatency: aggregateLatency,
		cacheLookups:     cacheLookups,
		rateLimitDenied:  rateLimitDenied,
	}, nil
}

// RecordReading counts one stored reading and its energy.
func (m *Metrics) RecordReading(ctx context.Context, source string, kwh float64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.readingsRecorded.Add(ctx, 1, metric.WithAttributes(attrs...))
	if kwh > 0 {
		m.energyRecorded.Add(ctx, kwh, metric.WithAttributes(attrs...))
	}
}

// ObserveAggregate records how long an aggregation took.
func (m *Metrics) ObserveAggregate(ctx context.Context, operation, period string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("period", strings.TrimSpace(period)),
	)
	m.aggregateLatency.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
}

// RecordCacheLookup counts an energy cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, operation string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("result", result),
	)
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied counts a throttled request.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// Room and device ids are unbounded, so they never become labels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"source":      {},
	"device_type": {},
	"operation":   {},
	"period":      {},
	"endpoint":    {},
	"status_code": {},
	"result":      {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
