package simulator

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/smallbiznis/roomwatt/internal/clock"
	"github.com/smallbiznis/roomwatt/internal/config"
	devicedomain "github.com/smallbiznis/roomwatt/internal/device/domain"
	usagedomain "github.com/smallbiznis/roomwatt/internal/usage/domain"
	"github.com/smallbiznis/roomwatt/internal/usage/liveevents"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	EnergyConfig *config.EnergyConfigHolder
	DeviceSvc    devicedomain.Service
	UsageSvc     usagedomain.Service
	Config       Config `optional:"true"`
}

// Worker emits synthetic readings for every device that is switched on.
type Worker struct {
	log          *zap.Logger
	clock        clock.Clock
	energyConfig *config.EnergyConfigHolder
	deviceSvc    devicedomain.Service
	usageSvc     usagedomain.Service
	cfg          Config
	randFloat    func() float64
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:          p.Log.Named("usage.simulator"),
		clock:        p.Clock,
		energyConfig: p.EnergyConfig,
		deviceSvc:    p.DeviceSvc,
		usageSvc:     p.UsageSvc,
		cfg:          p.Config.withDefaults(),
		randFloat:    rand.Float64,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.log.Info("simulator started", zap.Duration("interval", w.cfg.Interval))
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Warn("simulator run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			w.log.Info("simulator stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce records one reading per active device and returns how many were
// stored.
func (w *Worker) RunOnce(parentCtx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	devices, err := w.deviceSvc.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	energyCfg := w.energyConfig.Get()
	now := w.clock.Now()
	factor := timeOfDayFactor(now.In(energyCfg.Location()).Hour())

	recorded := 0
	for _, device := range devices {
		r, ok := energyCfg.Simulator[string(device.DeviceType)]
		if !ok {
			continue
		}
		energy := (r.Min + w.randFloat()*(r.Max-r.Min)) * factor
		recordedAt := now
		_, err := w.usageSvc.Record(ctx, usagedomain.RecordRequest{
			DeviceID:       device.ID,
			EnergyConsumed: energy,
			RecordedAt:     &recordedAt,
			Source:         liveevents.SourceSimulator,
		})
		if err != nil {
			w.log.Warn("simulated reading failed", zap.String("device_id", device.ID), zap.Error(err))
			continue
		}
		recorded++
	}

	if recorded > 0 {
		w.log.Debug("simulated readings recorded", zap.Int("count", recorded))
	}
	return recorded, nil
}

// timeOfDayFactor scales usage up for the morning and evening peaks.
func timeOfDayFactor(hour int) float64 {
	switch {
	case hour >= 7 && hour < 10:
		return 1.2
	case hour >= 10 && hour < 16:
		return 0.8
	case hour >= 16 && hour < 22:
		return 1.5
	default:
		return 0.4
	}
}
