package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/zuwa/backend/internal/api"
	"github.com/wonny/zuwa/backend/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                          - Health check
  POST /api/analyze/{symbol}            - 분석 실행 (동기)
  GET  /api/decisions/{symbol}          - 결정 이력 + 통계
  GET  /api/decisions/{symbol}/latest   - 최신 결정
  GET  /api/runs/{runID}                - 실행 단건 조회
  GET  /ws/analyze/{symbol}             - 단계 이벤트 스트리밍 (WebSocket)
  GET  /metrics                         - Prometheus metrics

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --fixture config/fixtures/600519.json`,
	RunE: runAPIServer,
}

var (
	apiPort    string
	apiFixture string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().StringVar(&apiFixture, "fixture", "", "fixture JSON 경로")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Zuwa API Server ===")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{fixture: apiFixture})
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	checks := map[string]handlers.Checker{}
	if a.rdb.Enabled() {
		checks["redis"] = a.rdb.Ping
	}
	if a.db != nil {
		checks["database"] = a.db.Ping
	}

	h := api.Handlers{
		Health:   handlers.NewHealthHandler("zuwa-api", checks),
		Decision: handlers.NewDecisionHandler(a.orch, a.repo, a.repo, a.log),
		Stream:   handlers.NewStreamHandler(a.orch, a.log),
	}
	if a.cfg.MetricsEnabled {
		h.Metrics = a.metrics.Handler()
	}

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
