package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medstage_backend/config"
	"github.com/Alijeyrad/medstage_backend/internal/service/evaluation"
	"github.com/Alijeyrad/medstage_backend/pkg/push"
)

// WorkerModule registers the background workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Registry    *push.Registry
	Relay       push.Relay `optional:"true"`
	Evaluations evaluation.Service
}

func RegisterWorkers(p WorkerParams) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg conc.WaitGroup

	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if p.Relay != nil {
				wg.Go(func() { runPushRelay(ctx, p.Relay, p.Registry) })
			}
			if rc := p.Cfg.Workers.EvaluationReminder; rc.Enabled {
				wg.Go(func() { runEvaluationReminders(ctx, p.Evaluations, rc.Interval(), time.Now) })
			}
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

// ---------------------------------------------------------------------------
// push_relay
// ---------------------------------------------------------------------------

// runPushRelay copies events from the shared push backend into the local
// registry, reconnecting after failures until ctx is done.
func runPushRelay(ctx context.Context, relay push.Relay, reg *push.Registry) {
	const backoff = 5 * time.Second
	for {
		err := relay.Relay(ctx, reg)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("push_relay: relay stopped, retrying", "err", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

// ---------------------------------------------------------------------------
// evaluation_reminder
// ---------------------------------------------------------------------------

func runEvaluationReminders(ctx context.Context, svc evaluation.Service, every time.Duration, now func() time.Time) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		sendEvaluationReminders(ctx, svc, now())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sendEvaluationReminders(ctx context.Context, svc evaluation.Service, at time.Time) {
	n, err := svc.SendDueReminders(ctx, at)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("evaluation_reminder: run failed", "sent", n, "err", err)
		}
		return
	}
	if n > 0 {
		slog.Info("evaluation_reminder: reminders sent", "count", n)
	}
}
