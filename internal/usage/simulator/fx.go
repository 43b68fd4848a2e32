package simulator

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("usage.simulator",
	fx.Provide(ConfigFromApp),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

// runWorker ties the simulator loop to the app lifecycle. OnStop waits for
// the loop to exit so no reading is recorded after the DB pool closes.
func runWorker(lc fx.Lifecycle, cfg Config, worker *Worker) {
	if !cfg.Enabled {
		return
	}

	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			done = make(chan struct{})

			go func() {
				defer close(done)
				worker.RunForever(ctx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel == nil {
				return nil
			}
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
