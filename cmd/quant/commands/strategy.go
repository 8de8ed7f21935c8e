package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/zuwa/backend/internal/strategyconfig"
)

// configCmd groups strategy config utilities
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "전략 설정 검증/출력",
	Long: `전략 설정 파일(agents.yaml)을 검증하거나 유효 설정을 출력합니다.

Example:
  go run ./cmd/quant config validate config/agents.yaml
  go run ./cmd/quant config show --strategy config/agents.yaml`,
}

var (
	configValidateCmd = &cobra.Command{
		Use:   "validate <path>",
		Short: "설정 파일 검증",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigValidate,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "유효 설정 출력 (기본값 포함)",
		RunE:  runConfigShow,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := strategyconfig.Load(args[0])
	if err != nil {
		fmt.Printf("❌ %s: %v\n", args[0], err)
		return err
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s is valid (hash %s)\n", args[0], hash)
	for _, w := range strategyconfig.Warn(cfg) {
		fmt.Printf("⚠️  %s: %s\n", w.Code, w.Message)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path := strategy
	if path == "" {
		path = os.Getenv("STRATEGY_PATH")
	}

	cfg, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return err
	}
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	if path == "" {
		path = "(built-in defaults)"
	}
	fmt.Printf("# source: %s\n# hash:   %s\n", path, hash)

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}
