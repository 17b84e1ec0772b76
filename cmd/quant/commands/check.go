package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/internal/api"
	"github.com/wonny/tradelens/internal/profile"
	"github.com/wonny/tradelens/pkg/config"
	"github.com/wonny/tradelens/pkg/database"
	"github.com/wonny/tradelens/pkg/httputil"
	"github.com/wonny/tradelens/pkg/redis"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "설정/연결 점검",
	Long: `설정, 프로필, 외부 저장소 연결을 점검합니다.

이 명령어는:
- .env / 환경변수 로드
- 분석 프로필 검증 및 해시 출력
- PostgreSQL 연결 + Connection Pool 통계 (DATABASE_URL 설정 시)
- Redis Ping (REDIS_ENABLED=true 시)
- 원격 API 서버 health (--server 설정 시)

Example:
  go run ./cmd/quant check
  go run ./cmd/quant check --profile profile.yaml --server http://localhost:8090`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(stdout, "=== tradelens Environment Check ===")

	// Load configuration
	cfg, log, err := loadConfig(true)
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	PrintSuccess(fmt.Sprintf("Config loaded (ENV: %s)", cfg.Env))

	// Profile
	p, err := loadProfile(cfg)
	if err != nil {
		return fmt.Errorf("❌ Invalid profile: %w", err)
	}
	hash, err := profile.Hash(p)
	if err != nil {
		return err
	}
	PrintSuccess("Profile valid")
	PrintKeyValue("Name", p.Name, 18)
	PrintKeyValue("Gain Column", p.GainColumn, 18)
	PrintKeyValue("Starting Capital", fmt.Sprintf("%.2f", p.StartingCapital), 18)
	PrintKeyValue("Hash", hash[:12], 18)
	PrintKeyValue("Exclusion Backend", cfg.Exclusion.Backend, 18)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	failed := 0
	if cfg.Database.URL != "" {
		if err := checkDatabase(ctx, cfg); err != nil {
			PrintError(err.Error())
			failed++
		}
	}

	if cfg.Redis.Enabled {
		if err := checkRedis(ctx, cfg); err != nil {
			PrintError(err.Error())
			failed++
		}
	}

	if serverURL != "" {
		client := api.NewClient(httputil.NewWithTimeout(log, 5*time.Second).DisableRetry(), serverURL)
		if err := client.Health(ctx); err != nil {
			PrintError(fmt.Sprintf("Server %s: %v", serverURL, err))
			failed++
		} else {
			PrintSuccess(fmt.Sprintf("Server %s healthy", serverURL))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Fprintln(stdout, "\n✅ All checks passed!")
	return nil
}

func checkDatabase(ctx context.Context, cfg *config.Config) error {
	fmt.Fprintf(stdout, "\nConnecting to database %s...\n", maskPassword(cfg.Database.URL))
	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	PrintSuccess("Database healthy")
	PrintKeyValue("Response Time", status.ResponseTime.String(), 18)

	// Pool statistics
	fmt.Fprintln(stdout, "📊 Connection Pool Statistics:")
	PrintKeyValue("Max Connections", fmt.Sprint(status.Stats.MaxConns), 18)
	PrintKeyValue("Total Connections", fmt.Sprint(status.Stats.TotalConns), 18)
	PrintKeyValue("Idle Connections", fmt.Sprint(status.Stats.IdleConns), 18)
	PrintKeyValue("Acquire Count", fmt.Sprint(status.Stats.AcquireCount), 18)
	return nil
}

func checkRedis(ctx context.Context, cfg *config.Config) error {
	fmt.Fprintf(stdout, "\nConnecting to redis %s:%s...\n", cfg.Redis.Host, cfg.Redis.Port)
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer client.Close()
	PrintSuccess("Redis ping successful")
	return nil
}

// maskPassword hides the password in a connection URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
