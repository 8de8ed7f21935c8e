package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/zuwa/backend/internal/audit"
	"github.com/wonny/zuwa/backend/internal/contracts"
)

// historyCmd prints stored decisions for a symbol
var historyCmd = &cobra.Command{
	Use:   "history <symbol>",
	Short: "결정 이력 조회",
	Long: `저장된 결정 기록과 종합 점수 통계를 출력합니다.
DATABASE_URL이 없으면 메모리 저장소이므로 항상 비어 있습니다.

Example:
  go run ./cmd/quant history 600519
  go run ./cmd/quant history 600519 --limit 50 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var (
	historyLimit int
	historyJSON  bool
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", audit.DefaultListLimit, "최대 레코드 수")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "JSON 출력")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := audit.NewAnalyzer(a.repo, a.log).Analyze(ctx, args[0], historyLimit)
	if err != nil {
		return err
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	PrintHeader("🗂  "+report.Symbol+" decision history",
		fmt.Sprintf("Records   : %d", len(report.Records)),
		fmt.Sprintf("Composite : latest %.1f  mean %.2f  min %.1f  max %.1f  σ %.2f",
			report.LatestComposite, report.MeanComposite, report.MinComposite, report.MaxComposite, report.StdDev),
		fmt.Sprintf("Changes   : %d rating change(s)", report.RatingChanges),
	)

	for _, r := range contracts.AllRatings() {
		if n := report.RatingCounts[r]; n > 0 {
			fmt.Printf("  %-12s %d\n", r.Label(), n)
		}
	}
	fmt.Println()
	for _, rec := range report.Records {
		fmt.Printf("  %s  %-12s %5.1f  %s\n", rec.Timestamp.Format("2006-01-02 15:04"), rec.Rating.Label(), rec.CompositeScore, rec.RunID)
	}
	if len(report.Failures) > 0 {
		fmt.Printf("\n⚠️  analyst failures: %v\n", report.Failures)
	}
	return nil
}
