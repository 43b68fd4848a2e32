package simulator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	devicedomain "github.com/smallbiznis/roomwatt/internal/device/domain"
	usagedomain "github.com/smallbiznis/roomwatt/internal/usage/domain"
	"go.uber.org/fx/fxtest"
)

type countingUsage struct {
	usagedomain.Service
	calls atomic.Int64
}

func (u *countingUsage) Record(_ context.Context, req usagedomain.RecordRequest) (*usagedomain.Response, error) {
	u.calls.Add(1)
	return &usagedomain.Response{DeviceID: req.DeviceID, EnergyConsumed: req.EnergyConsumed}, nil
}

func TestRunWorkerStopsWithLifecycle(t *testing.T) {
	devices := &deviceStub{active: []devicedomain.Response{{ID: "1", DeviceType: devicedomain.TypeLight}}}
	usage := &countingUsage{}
	w := newTestWorker(devices, &usageStub{}, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	w.usageSvc = usage
	w.cfg.Interval = 5 * time.Millisecond

	lc := fxtest.NewLifecycle(t)
	runWorker(lc, Config{Enabled: true, Interval: w.cfg.Interval}, w)
	lc.RequireStart()

	deadline := time.Now().Add(2 * time.Second)
	for usage.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("expected the simulator to record readings while running")
		}
		time.Sleep(time.Millisecond)
	}

	lc.RequireStop()
	stopped := usage.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := usage.calls.Load(); got != stopped {
		t.Fatalf("expected no readings after stop, got %d more", got-stopped)
	}
}

func TestRunWorkerDisabledRegistersNothing(t *testing.T) {
	usage := &countingUsage{}
	w := newTestWorker(&deviceStub{active: []devicedomain.Response{{ID: "1", DeviceType: devicedomain.TypeLight}}}, &usageStub{}, time.Now())
	w.usageSvc = usage

	lc := fxtest.NewLifecycle(t)
	runWorker(lc, Config{}, w)
	lc.RequireStart()
	lc.RequireStop()

	if usage.calls.Load() != 0 {
		t.Fatal("expected disabled simulator to stay idle")
	}
}
