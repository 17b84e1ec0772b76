package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/internal/api"
	"github.com/wonny/tradelens/internal/api/handlers"
	"github.com/wonny/tradelens/pkg/monitoring"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 분석 엔드포인트 제공 (거래 로그는 JSON records 로 전달)
- 제외 목록 조회/저장
- METRICS_ENABLED=true 이면 /metrics 노출

Endpoints:
  GET    /health
  GET    /metrics
  POST   /api/features
  POST   /api/metrics
  POST   /api/compare
  POST   /api/breakdown/yearly
  POST   /api/breakdown/monthly
  POST   /api/breakdown/years
  GET    /api/exclusions?source=<file>
  PUT    /api/exclusions
  DELETE /api/exclusions?source=<file>

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8090 --profile profile.yaml`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default from PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, log, err := loadConfig(false)
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Load profile
	p, err := loadProfile(cfg)
	if err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"port":    cfg.Port,
		"env":     cfg.Env,
		"profile": p.Name,
	}).Info("Initializing API server")

	// 3. Metrics
	var monitor *monitoring.Registry
	if cfg.MetricsEnabled {
		monitor = monitoring.NewRegistry()
	}

	// 4. Stores and analysis service
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, cfg, log, p, monitor)
	if err != nil {
		return err
	}
	defer svc.close()

	// 5. Router
	router := api.NewRouter(handlers.NewHandler(svc.analysis, log), api.RouterDeps{
		Logger:  log,
		Monitor: monitor,
		Limiter: api.NewLimiter(cfg, svc.redis, log),
	})

	// 6. Serve until interrupted
	server := api.New(cfg, log, router)
	fmt.Fprintf(stdout, "\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Fprintln(stdout, "Press Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
