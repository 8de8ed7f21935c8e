package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/zuwa/backend/internal/brain"
	"github.com/wonny/zuwa/backend/internal/contracts"
)

// analyzeCmd runs the pipeline once for one symbol
var analyzeCmd = &cobra.Command{
	Use:   "analyze <symbol>",
	Short: "한 종목 분석 (S0 → S1 → S2 → S3)",
	Long: `한 종목에 대해 전체 파이프라인을 1회 실행하고 결과를 출력합니다.

Flags:
  --fixture    JSON fixture 파일 사용 (네트워크 X)
  --json       결정 기록을 JSON으로 출력
  --name       종목명 덮어쓰기
  --timeout    전체 실행 제한 시간
  --events     단계 이벤트 실시간 출력
  --no-store   결정 기록 저장 안 함

Example:
  go run ./cmd/quant analyze 600519
  go run ./cmd/quant analyze sz000001 --json
  go run ./cmd/quant analyze 600519 --fixture config/fixtures/600519.json --events`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeFixture string
	analyzeJSON    bool
	analyzeName    string
	analyzeTimeout time.Duration
	analyzeEvents  bool
	analyzeNoStore bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFixture, "fixture", "", "fixture JSON 경로")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 출력")
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "종목명")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "전체 실행 제한 시간")
	analyzeCmd.Flags().BoolVar(&analyzeEvents, "events", false, "단계 이벤트 출력")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "결정 기록 저장 안 함")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	symbol := contracts.NormalizeSymbol(args[0])
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	a, err := newApp(ctx, appOptions{fixture: analyzeFixture, noStore: analyzeNoStore})
	if err != nil {
		return err
	}
	defer a.Close()

	var observe brain.Observer
	if analyzeEvents && !analyzeJSON {
		observe = printEvent
	}

	record := a.orch.Run(ctx, brain.RunRequest{Symbol: symbol, Name: analyzeName}, observe)

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	PrintDecision(record, currentPrice(record))
	return nil
}

// printEvent prints one stage event; it is called from analyst goroutines
func printEvent(ev contracts.StageEvent) {
	if ev.Status == contracts.EventStarted && ev.Domain != "" {
		return
	}
	label := ev.Stage.ShortName()
	if ev.Domain != "" {
		label = fmt.Sprintf("%s/%s", label, ev.Domain)
	}
	switch ev.Status {
	case contracts.EventStarted:
		fmt.Printf("[%s] started\n", label)
	case contracts.EventCompleted:
		fmt.Printf("[%s] ✓ %s %s (%dms)\n", label, ev.Signal, ev.Message, ev.DurationMS)
	default:
		fmt.Printf("[%s] ✗ %s: %s (%dms)\n", label, ev.Status, ev.Message, ev.DurationMS)
	}
}

// currentPrice reads the last close seen by the technical analyst
func currentPrice(record *contracts.DecisionRecord) float64 {
	out, ok := record.Outputs[contracts.DomainTechnical]
	if !ok {
		return 0
	}
	if d, ok := out.Details.(*contracts.TechnicalDetails); ok {
		return d.SupportResistance.Current
	}
	return 0
}
