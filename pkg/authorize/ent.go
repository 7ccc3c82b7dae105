package authorize

import (
	"context"
	"log/slog"
	"sync/atomic"

	psqlwatcher "github.com/IguteChung/casbin-psql-watcher"
	casbin "github.com/casbin/casbin/v2"
	entadapter "github.com/casbin/ent-adapter"
)

// policyLoadHealthy is false after a watcher-triggered reload failed.
var policyLoadHealthy atomic.Bool

func init() {
	policyLoadHealthy.Store(true)
}

// IsPolicyHealthy reports whether the last policy reload succeeded.
func IsPolicyHealthy() bool {
	return policyLoadHealthy.Load()
}

// CleanupFunc is a function that cleans up resources.
type CleanupFunc func(ctx context.Context)

// NewEnforcer creates a DistributedEnforcer whose policies live in postgres
// through the ent adapter. With PolicySyncEnabled a LISTEN/NOTIFY watcher
// reloads policies written by other instances.
func NewEnforcer(cfg Config, dsn string) (*casbin.DistributedEnforcer, CleanupFunc, error) {
	m, err := LoadModel(cfg.CasbinModelPath)
	if err != nil {
		return nil, nil, err
	}

	a, err := entadapter.NewAdapter("postgres", dsn)
	if err != nil {
		return nil, nil, err
	}

	e, err := casbin.NewDistributedEnforcer(m, a)
	if err != nil {
		return nil, nil, err
	}
	e.EnableAutoSave(true)
	e.EnableEnforce(true)

	if !cfg.PolicySyncEnabled {
		return e, func(context.Context) {}, nil
	}

	w, err := psqlwatcher.NewWatcherWithConnString(context.Background(), dsn, psqlwatcher.Option{
		Channel: "casbin_policy_update",
	})
	if err != nil {
		return nil, nil, err
	}

	err = w.SetUpdateCallback(func(msg string) {
		slog.Debug("casbin policy update received", "message", msg)
		if err := e.LoadPolicy(); err != nil {
			slog.Error("failed to reload policy after watcher notification", "error", err)
			policyLoadHealthy.Store(false)
		} else {
			policyLoadHealthy.Store(true)
		}
	})
	if err != nil {
		return nil, nil, err
	}

	if err := e.SetWatcher(w); err != nil {
		return nil, nil, err
	}

	cleanup := func(ctx context.Context) {
		slog.Info("closing casbin policy watcher")
		w.Close()
		e.StopAutoLoadPolicy()
	}

	return e, cleanup, nil
}
