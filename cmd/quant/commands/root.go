package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile  string
	strategy string
	verbose  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Zuwa - A股 다중 분석가 의사결정 파이프라인",
	Long: `Zuwa Unified CLI

한 종목에 대해 5명의 분석가(기술/자금/정보/업종/군중심리),
강세·약세 토론, 수석 분석가 종합을 거쳐 투자 등급을 산출합니다.

S0 데이터 → S1 분석가 → S2 토론 → S3 종합

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant analyze 600519
  go run ./cmd/quant analyze 600519 --fixture config/fixtures/600519.json
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start
  go run ./cmd/quant config validate config/agents.yaml`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// 환경 변수는 config.Load()가 읽으므로 플래그를 env로 전달
		if envFile != "" {
			os.Setenv("ENV_FILE", envFile)
		}
		if strategy != "" {
			os.Setenv("STRATEGY_PATH", strategy)
		}
		if verbose {
			os.Setenv("LOG_LEVEL", "debug")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", ".env 파일 경로 (기본: .env, backend/.env)")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", "", "전략 설정 YAML (기본: STRATEGY_PATH 또는 내장 기본값)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
