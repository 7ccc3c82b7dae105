package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/Alijeyrad/medstage_backend/config"
	"github.com/Alijeyrad/medstage_backend/internal/service/evaluation"
)

type countingEvaluations struct {
	evaluation.Service
	calls atomic.Int32
	err   error
}

func (c *countingEvaluations) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestRunEvaluationRemindersRunsImmediatelyAndOnTick(t *testing.T) {
	svc := &countingEvaluations{err: errors.New("store down")}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		runEvaluationReminders(ctx, svc, 5*time.Millisecond, time.Now)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for svc.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs", svc.calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestModulesValidate(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = config.DriverMemory
	cfg.Push.Backend = config.PushBackendMemory

	err := fx.ValidateApp(
		fx.Supply(cfg),
		InfraModule,
		ServiceModule,
		WorkerModule,
	)
	if err != nil {
		t.Fatal(err)
	}
}
