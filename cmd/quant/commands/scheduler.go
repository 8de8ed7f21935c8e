package commands

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/zuwa/backend/internal/scheduler"
	"github.com/wonny/zuwa/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `관심 종목(WATCHLIST)을 정기적으로 분석합니다.

Subcommands:
  start   - 스케줄러 시작 (SCHEDULE_CRON, 기본 평일 15:30)
  run     - 관심 종목 즉시 1회 분석

Example:
  WATCHLIST=600519,000001 go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler run --symbols 600519,300750`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runSchedulerStart,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run",
		Short: "관심 종목 즉시 분석",
		RunE:  runSchedulerOnce,
	}

	schedulerSymbols     string
	schedulerConcurrency int
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerSymbols, "symbols", "", "관심 종목 (쉼표 구분, 기본: WATCHLIST)")
	schedulerCmd.PersistentFlags().IntVar(&schedulerConcurrency, "concurrency", 2, "동시 분석 종목 수")
}

func newWatchlistJob(a *app) *jobs.WatchlistJob {
	symbols := a.cfg.Scheduler.Watchlist
	if schedulerSymbols != "" {
		symbols = strings.Split(schedulerSymbols, ",")
	}
	return jobs.NewWatchlistJob(a.orch, symbols, a.cfg.Scheduler.Cron, a.log).
		WithConcurrency(schedulerConcurrency)
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Zuwa Scheduler ===")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.log, scheduler.WithRetry(2, 5*time.Minute))
	job := newWatchlistJob(a)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	if a.cfg.MetricsEnabled {
		go serveMetrics(a)
	}

	sched.Start()
	if next, ok := sched.NextRun(job.Name()); ok {
		fmt.Printf("\n✅ %s scheduled (%s), next run %s\n", job.Name(), job.Schedule(), next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()
	sched.Stop()

	for name, st := range sched.GetJobStats() {
		a.log.WithFields(map[string]interface{}{
			"job":          name,
			"total_runs":   st.TotalRuns,
			"success_rate": st.SuccessRate,
		}).Info("Job summary")
	}
	return nil
}

func runSchedulerOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.log, scheduler.WithRetry(0, 0))
	job := newWatchlistJob(a)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	result, err := sched.RunJob(ctx, job.Name())
	if err != nil {
		return err
	}

	PrintHeader("📅 "+job.Name(),
		fmt.Sprintf("Duration  : %s", result.Duration.Round(time.Millisecond)),
		fmt.Sprintf("Success   : %v", result.Success),
	)
	symbols := a.cfg.Scheduler.Watchlist
	if schedulerSymbols != "" {
		symbols = strings.Split(schedulerSymbols, ",")
	}
	for _, s := range symbols {
		if record, ok := job.Latest(s); ok {
			fmt.Printf("  %-8s %-12s %5.1f  %s\n", record.Symbol, record.Rating.Label(), record.CompositeScore, record.RunID)
		}
	}

	if !result.Success {
		return fmt.Errorf("%s failed: %s", job.Name(), result.Error)
	}
	return nil
}

// serveMetrics exposes /metrics on METRICS_PORT
func serveMetrics(a *app) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())

	srv := &http.Server{
		Addr:              ":" + a.cfg.MetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.log.WithField("port", a.cfg.MetricsPort).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.log.WithError(err).Warn("Metrics server stopped")
	}
}
