package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-api/internal/config"
	"github.com/sells-group/outreach-api/internal/enrich"
	"github.com/sells-group/outreach-api/internal/ingest"
	"github.com/sells-group/outreach-api/internal/resilience"
	"github.com/sells-group/outreach-api/internal/store"
	anthropicpkg "github.com/sells-group/outreach-api/pkg/anthropic"
	"github.com/sells-group/outreach-api/pkg/youcom"
)

// appEnv holds the initialized store, clients, and pipeline wiring shared by
// the serve/ingest/monitor commands.
type appEnv struct {
	Store   store.Store
	Runner  *enrich.Runner
	Gateway *ingest.Gateway
}

// Close releases resources held by the environment. Drain first if in-flight
// jobs should finish.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "outreach.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv sets up the store, provider clients, and the enrichment runner.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	var st store.Store
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger(cfg.Store.Driver, "connect")
	err := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
		var err error
		st, err = initStore(ctx)
		return err
	})
	if err != nil {
		return nil, eris.Wrap(err, "connect store")
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	search := initSearchClient(cfg.YouCom)
	ai := anthropicpkg.NewClient(cfg.Anthropic.Key)

	runner := enrich.NewRunner(enrich.New(cfg, st, search, ai))
	gateway := ingest.NewGateway(cfg, st, runner)

	return &appEnv{
		Store:   st,
		Runner:  runner,
		Gateway: gateway,
	}, nil
}

func initSearchClient(yc config.YouComConfig) youcom.Client {
	opts := []youcom.Option{}
	if yc.BaseURL != "" {
		opts = append(opts, youcom.WithBaseURL(yc.BaseURL))
	}
	if yc.TimeoutSecs > 0 {
		opts = append(opts, youcom.WithHTTPClient(&http.Client{
			Timeout: time.Duration(yc.TimeoutSecs) * time.Second,
		}))
	}
	if yc.Key == "" {
		zap.L().Warn("OUTREACH_YOUCOM_KEY not set, research calls will fail and drafts fall back")
	}
	return youcom.NewClient(yc.Key, opts...)
}
