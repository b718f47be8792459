package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vest-cli/internal/marketplace"
	"github.com/sells-group/vest-cli/internal/profit"
	"github.com/sells-group/vest-cli/internal/resilience"
	"github.com/sells-group/vest-cli/internal/scan"
	"github.com/sells-group/vest-cli/internal/scorer"
	"github.com/sells-group/vest-cli/internal/store"
	"github.com/sells-group/vest-cli/pkg/ebay"
)

// scanEnv holds everything the scan, history and serve commands share.
type scanEnv struct {
	Engine  *scorer.Engine
	Store   store.Store // nil when store.driver is none
	Session *scan.Session
}

// Close releases resources held by the environment.
func (e *scanEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initScanEnv builds the engine, opens and migrates the history store, and
// wires the marketplace searchers into a scan session. Callers should defer
// env.Close().
func initScanEnv(ctx context.Context) (*scanEnv, error) {
	engine, err := initEngine()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	searcher, err := initSearcher()
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, err
	}

	var opts []scan.Option
	if st != nil {
		opts = append(opts, scan.WithHistory(st))
	}

	return &scanEnv{
		Engine:  engine,
		Store:   st,
		Session: scan.NewSession(searcher, engine, sessionConfig(), opts...),
	}, nil
}

// initEngine builds the scoring engine from the configured weights and the
// optional fee schedule file.
func initEngine() (*scorer.Engine, error) {
	calc := profit.Default()
	if cfg.Fees.File != "" {
		fees, err := profit.LoadFeeSchedule(cfg.Fees.File)
		if err != nil {
			return nil, err
		}
		if err := fees.Validate(); err != nil {
			return nil, err
		}
		calc = profit.NewCalculator(fees)
	}

	engine, err := scorer.NewEngine(calc, cfg.Scoring.Weights)
	if err != nil {
		return nil, eris.Wrap(err, "init engine")
	}
	return engine, nil
}

// initStore opens the history store named by store.driver. It returns a nil
// store, not an error, when history is disabled.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "none", "":
		return nil, nil
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "vest.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// requireStore is initStore for commands that cannot run without history.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("scan history is disabled (store.driver is none)")
	}
	return st, nil
}

// initSearcher chains the Browse API, when credentials are set, ahead of the
// search-page scraper. Each link gets its own circuit breaker.
func initSearcher() (marketplace.Searcher, error) {
	reset := time.Duration(cfg.Search.BreakerResetSecs) * time.Second
	guard := func(name string, s marketplace.Searcher) marketplace.Searcher {
		return marketplace.NewGuarded(s, resilience.NewBreaker(resilience.BreakerConfig{
			Name:             name,
			FailureThreshold: cfg.Search.BreakerThreshold,
			ResetTimeout:     reset,
		}))
	}

	var chain marketplace.Fallback
	if cfg.Ebay.HasCredentials() {
		client := ebay.NewClient(cfg.Ebay.ClientID, cfg.Ebay.ClientSecret,
			ebay.WithBaseURL(cfg.Ebay.BaseURL),
			ebay.WithMarketplace(cfg.Ebay.Marketplace),
			ebay.WithRateLimit(cfg.Ebay.RateLimit),
		)
		chain = append(chain, guard("ebay-browse", marketplace.NewEbaySearcher(client, cfg.Ebay.Filter)))
	}
	if cfg.Ebay.HTMLFallback {
		chain = append(chain, guard("ebay-html", marketplace.NewHTMLSearcher(nil, cfg.Ebay.HTMLURL)))
	}

	switch len(chain) {
	case 0:
		return nil, eris.New("no marketplace configured: set VEST_EBAY_CLIENT_ID and VEST_EBAY_CLIENT_SECRET or enable ebay.html_fallback")
	case 1:
		return chain[0], nil
	}
	zap.L().Debug("marketplace fallback chain", zap.Int("searchers", len(chain)))
	return chain, nil
}

func sessionConfig() scan.Config {
	return scan.Config{
		MinResults:    cfg.Search.MinResults,
		SearchLimit:   cfg.Search.Limit,
		SearchTimeout: time.Duration(cfg.Search.TimeoutSecs) * time.Second,
		Seed:          cfg.Search.Seed,
		Ladder:        cfg.Scoring.Grades(),
	}
}
