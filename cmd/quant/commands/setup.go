package commands

import (
	"context"
	"fmt"

	"github.com/wonny/tradelens/internal/analysis"
	"github.com/wonny/tradelens/internal/api"
	"github.com/wonny/tradelens/internal/breakdown"
	"github.com/wonny/tradelens/internal/exclusion"
	"github.com/wonny/tradelens/internal/metrics"
	"github.com/wonny/tradelens/internal/profile"
	"github.com/wonny/tradelens/pkg/config"
	"github.com/wonny/tradelens/pkg/database"
	"github.com/wonny/tradelens/pkg/httputil"
	"github.com/wonny/tradelens/pkg/logger"
	"github.com/wonny/tradelens/pkg/monitoring"
	"github.com/wonny/tradelens/pkg/redis"
)

// backend runs analyses either in-process or on a remote server
type backend interface {
	RankFeatures(ctx context.Context, req analysis.FeatureRequest) (*analysis.FeatureReport, error)
	PortfolioReport(ctx context.Context, req analysis.Request) (metrics.PortfolioMetrics, error)
	Compare(ctx context.Context, req analysis.CompareRequest) (metrics.Comparison, error)
	Yearly(ctx context.Context, req analysis.Request) ([]breakdown.Summary, error)
	Monthly(ctx context.Context, req analysis.Request, year int) ([]breakdown.Summary, error)
	Years(ctx context.Context, req analysis.Request) ([]int, error)
	Exclusions(ctx context.Context, sourceFile string) ([]string, error)
	SaveExclusions(ctx context.Context, sourceFile string, names []string) error
	ClearExclusions(ctx context.Context, sourceFile string) error
}

var (
	_ backend = (*analysis.Service)(nil)
	_ backend = (*api.Client)(nil)
)

// app is what every command needs
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	profile *profile.Profile
	backend backend
	close   func()
}

// loadConfig reads .env / environment and applies --verbose
func loadConfig(quiet bool) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	switch {
	case verbose:
		cfg.LogLevel = "debug"
		cfg.LogFormat = "console"
	case quiet:
		cfg.LogLevel = "warn"
	}
	return cfg, logger.New(cfg), nil
}

// loadProfile applies --profile and --capital on top of the environment defaults
func loadProfile(cfg *config.Config) (*profile.Profile, error) {
	p := profile.FromConfig(cfg)
	if profilePath != "" {
		loaded, _, err := profile.Load(profilePath, p)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	if capital > 0 {
		p.StartingCapital = capital
		if err := profile.Validate(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// newApp wires the backend for a one-shot CLI command
func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig(true)
	if err != nil {
		return nil, err
	}
	p, err := loadProfile(cfg)
	if err != nil {
		return nil, err
	}

	if serverURL != "" {
		client := api.NewClient(httputil.New(log), serverURL)
		return &app{cfg: cfg, log: log, profile: p, backend: client, close: func() {}}, nil
	}

	svc, err := buildServices(ctx, cfg, log, p, nil)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, profile: p, backend: svc.analysis, close: svc.close}, nil
}

// services are the long-lived pieces shared by the CLI and the API server
type services struct {
	analysis *analysis.Service
	redis    *redis.Client
	db       *database.DB
	close    func()
}

// buildServices connects the configured stores and creates the analysis service
func buildServices(ctx context.Context, cfg *config.Config, log *logger.Logger, p *profile.Profile, monitor *monitoring.Registry) (*services, error) {
	s := &services{}
	var closers []func()
	s.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.redis = rc
	closers = append(closers, func() { _ = rc.Close() })

	if cfg.Exclusion.Backend == config.BackendPostgres {
		db, err := database.New(ctx, cfg)
		if err != nil {
			s.close()
			return nil, err
		}
		s.db = db
		closers = append(closers, db.Close)
	}

	store, err := exclusion.NewStore(ctx, cfg, exclusion.Deps{DB: s.db, Redis: rc})
	if err != nil {
		s.close()
		return nil, err
	}

	opts := []analysis.Option{
		analysis.WithExclusions(exclusion.NewManager(store, log)),
		analysis.WithMonitoring(monitor),
	}
	if rc.Enabled() {
		opts = append(opts, analysis.WithCache(redis.NewCache(rc, "tradelens").WithLogger(log), cfg.API.CacheTTL))
	}

	svc, err := analysis.NewService(p, log, opts...)
	if err != nil {
		s.close()
		return nil, err
	}
	s.analysis = svc

	log.WithFields(map[string]interface{}{
		"exclusion_backend": cfg.Exclusion.Backend,
		"redis":             rc.Enabled(),
		"starting_capital":  p.StartingCapital,
	}).Debug("Analysis services ready")
	return s, nil
}
