// Package analysis wires the calculators, the exclusion manager and the
// result cache behind one service used by both the CLI and the API.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/tradelens/internal/breakdown"
	"github.com/wonny/tradelens/internal/exclusion"
	"github.com/wonny/tradelens/internal/features"
	"github.com/wonny/tradelens/internal/metrics"
	"github.com/wonny/tradelens/internal/profile"
	"github.com/wonny/tradelens/internal/table"
	"github.com/wonny/tradelens/pkg/logger"
	"github.com/wonny/tradelens/pkg/monitoring"
	"github.com/wonny/tradelens/pkg/redis"
)

var (
	// ErrNoTable is returned when a request carries no table
	ErrNoTable = errors.New("no table given")
	// ErrNoExclusionStore is returned by exclusion operations on a service built without a manager
	ErrNoExclusionStore = errors.New("exclusion store not configured")
	// ErrNoSource is returned when an exclusion operation names no source file
	ErrNoSource = errors.New("source file required")
)

// Service runs analyses with one profile
// ⭐ SSOT: 계산기 조합은 여기서만
type Service struct {
	profile     *profile.Profile
	profileHash string

	features   *features.Calculator
	exclusions *exclusion.Manager

	cache    *redis.Cache
	cacheTTL time.Duration
	monitor  *monitoring.Registry
	logger   *logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithCache caches results in Redis for ttl
func WithCache(cache *redis.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithMonitoring records calculator latency and skipped features
func WithMonitoring(reg *monitoring.Registry) Option {
	return func(s *Service) {
		s.monitor = reg
	}
}

// WithExclusions enables saved feature exclusions
func WithExclusions(m *exclusion.Manager) Option {
	return func(s *Service) {
		s.exclusions = m
	}
}

// NewService creates a service; a nil profile means profile.Default()
func NewService(p *profile.Profile, log *logger.Logger, opts ...Option) (*Service, error) {
	if p == nil {
		p = profile.Default()
	}
	if err := profile.Validate(p); err != nil {
		return nil, err
	}
	hash, err := profile.Hash(p)
	if err != nil {
		return nil, fmt.Errorf("hash profile: %w", err)
	}

	s := &Service{
		profile:     p,
		profileHash: hash,
		cacheTTL:    redis.DefaultTTL,
		logger:      logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.features = features.NewCalculator(s.logger, features.WithSkipHook(func(string, error) {
		s.monitor.FeatureSkipped()
	}))
	return s, nil
}

// Profile returns the service's analysis parameters
func (s *Service) Profile() *profile.Profile {
	return s.profile
}

// Request is one table plus an optional starting capital override.
// Fingerprint identifies the input for the result cache; empty disables caching.
type Request struct {
	Table           *table.Table
	StartingCapital float64
	Fingerprint     string
}

func (s *Service) capital(req Request) float64 {
	if req.StartingCapital > 0 {
		return req.StartingCapital
	}
	return s.profile.StartingCapital
}

// FeatureRequest asks for a feature ranking
type FeatureRequest struct {
	Request
	SourceFile string   // saved exclusions of this file are applied when set
	GainColumn string   // empty = profile gain column
	Exclude    []string // added to the profile and saved exclusions
}

// FeatureReport is a ranked feature list
type FeatureReport struct {
	GainColumn string            `json:"gain_column"`
	Excluded   []string          `json:"excluded"`
	Features   []features.Ranked `json:"features"`
}

// CompareRequest asks for a baseline vs. combined comparison
type CompareRequest struct {
	Baseline        *table.Table
	Combined        *table.Table
	StartingCapital float64
	Fingerprint     string
}

// observe records one calculator run
func (s *Service) observe(name string, start time.Time) {
	s.monitor.ObserveCalculation(name, time.Since(start))
}

// cached serves fn's result from the cache when the input was seen before
func cached[T any](ctx context.Context, s *Service, op string, parts []string, fn func() (T, error)) (T, error) {
	if !s.cache.Enabled() || len(parts) == 0 || parts[0] == "" {
		return fn()
	}

	key := redis.ResultKey(op, append([]string{s.profileHash}, parts...)...)
	var out T
	hit, err := s.cache.GetOrSet(ctx, key, &out, s.cacheTTL, func() (interface{}, error) {
		return fn()
	})
	s.monitor.CacheLookup(hit)
	return out, err
}

func digest(values []string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "\x00")))
	return hex.EncodeToString(sum[:8])
}

// RankFeatures analyzes every candidate column and sorts by impact score.
// Saved exclusions for req.SourceFile are unioned with the profile's and the request's.
func (s *Service) RankFeatures(ctx context.Context, req FeatureRequest) (*FeatureReport, error) {
	if req.Table == nil {
		return nil, ErrNoTable
	}

	gainCol := req.GainColumn
	if gainCol == "" {
		gainCol = s.profile.GainColumn
	}
	if !req.Table.Has(gainCol) {
		return nil, fmt.Errorf("gain column %q: %w", gainCol, table.ErrColumnNotFound)
	}

	excluded := exclusion.NewSet(s.profile.ExcludedColumns...)
	for _, name := range req.Exclude {
		excluded[name] = struct{}{}
	}
	if req.SourceFile != "" && s.exclusions != nil {
		// 저장된 제외 목록을 읽지 못해도 분석은 계속 (Manager가 이미 로깅)
		saved, _ := s.exclusions.Load(ctx, req.SourceFile)
		for name := range saved {
			excluded[name] = struct{}{}
		}
	}
	names := excluded.Sorted()

	return cached(ctx, s, "features", []string{req.Fingerprint, gainCol, digest(names)}, func() (*FeatureReport, error) {
		defer s.observe("features", time.Now())

		results := s.features.CalculateAll(req.Table, gainCol, names)
		scores := features.ImpactScores(results, s.profile.MinTradesThreshold)
		return &FeatureReport{
			GainColumn: gainCol,
			Excluded:   names,
			Features:   features.Rank(results, scores),
		}, nil
	})
}

// PortfolioReport computes every single-curve metric
func (s *Service) PortfolioReport(ctx context.Context, req Request) (metrics.PortfolioMetrics, error) {
	if req.Table == nil {
		return metrics.PortfolioMetrics{}, ErrNoTable
	}
	capital := s.capital(req)

	return cached(ctx, s, "metrics", []string{req.Fingerprint, fmt.Sprint(capital)}, func() (metrics.PortfolioMetrics, error) {
		defer s.observe("metrics", time.Now())
		return metrics.NewCalculator(capital).AllMetrics(req.Table, s.profile.MetricsOptions()), nil
	})
}

// Compare measures how a strategy changes a baseline portfolio
func (s *Service) Compare(ctx context.Context, req CompareRequest) (metrics.Comparison, error) {
	if req.Baseline == nil || req.Combined == nil {
		return metrics.Comparison{}, ErrNoTable
	}
	capital := s.capital(Request{StartingCapital: req.StartingCapital})

	return cached(ctx, s, "compare", []string{req.Fingerprint, fmt.Sprint(capital)}, func() (metrics.Comparison, error) {
		defer s.observe("compare", time.Now())
		return metrics.NewCalculator(capital).Compare(req.Baseline, req.Combined, s.profile.CompareOptions()), nil
	})
}

// Yearly summarizes each calendar year
func (s *Service) Yearly(ctx context.Context, req Request) ([]breakdown.Summary, error) {
	if req.Table == nil {
		return nil, ErrNoTable
	}
	capital := s.capital(req)

	return cached(ctx, s, "yearly", []string{req.Fingerprint, fmt.Sprint(capital)}, func() ([]breakdown.Summary, error) {
		defer s.observe("breakdown", time.Now())
		return breakdown.NewCalculator(capital).Yearly(req.Table)
	})
}

// Monthly summarizes each month of year
func (s *Service) Monthly(ctx context.Context, req Request, year int) ([]breakdown.Summary, error) {
	if req.Table == nil {
		return nil, ErrNoTable
	}
	capital := s.capital(req)

	return cached(ctx, s, "monthly", []string{req.Fingerprint, fmt.Sprint(capital), fmt.Sprint(year)}, func() ([]breakdown.Summary, error) {
		defer s.observe("breakdown", time.Now())
		return breakdown.NewCalculator(capital).Monthly(req.Table, year)
	})
}

// Years lists the years present in the table, ascending
func (s *Service) Years(_ context.Context, req Request) ([]int, error) {
	if req.Table == nil {
		return nil, ErrNoTable
	}
	return breakdown.AvailableYears(req.Table)
}

// Exclusions returns the saved exclusions of sourceFile, sorted.
// An unreadable record counts as no exclusions; the Manager has logged it.
func (s *Service) Exclusions(ctx context.Context, sourceFile string) ([]string, error) {
	if s.exclusions == nil {
		return nil, ErrNoExclusionStore
	}
	if sourceFile == "" {
		return nil, ErrNoSource
	}
	set, _ := s.exclusions.Load(ctx, sourceFile)
	return set.Sorted(), nil
}

// SaveExclusions replaces the saved exclusions of sourceFile
func (s *Service) SaveExclusions(ctx context.Context, sourceFile string, names []string) error {
	if s.exclusions == nil {
		return ErrNoExclusionStore
	}
	if sourceFile == "" {
		return ErrNoSource
	}
	return s.exclusions.Save(ctx, sourceFile, exclusion.NewSet(names...))
}

// ClearExclusions removes the saved exclusions of sourceFile
func (s *Service) ClearExclusions(ctx context.Context, sourceFile string) error {
	if s.exclusions == nil {
		return ErrNoExclusionStore
	}
	if sourceFile == "" {
		return ErrNoSource
	}
	return s.exclusions.Clear(ctx, sourceFile)
}
