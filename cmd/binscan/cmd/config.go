package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/binscan/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage binscan configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  binscan config init -o binscan.yaml
  binscan config validate -f binscan.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  binscan config init -o binscan.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  binscan config validate -f binscan.yaml`,
	RunE: runConfigValidate,
}

var configInitOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "binscan.yaml", "output config file path")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nSet OANDA_TOKEN (or edit broker.data), then run with:")
	fmt.Printf("  binscan run -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	mode := "paper"
	if !cfg.Execution.PaperTrading {
		mode = "live via " + cfg.Broker.Bridge.URL
	}

	fmt.Printf("✓ Configuration valid: %s\n", configPath)
	fmt.Printf("  Basket: %s\n", strings.Join(cfg.Basket(), ", "))
	fmt.Printf("  Stake: $%.2f (target +%.2f, stop -%.2f)\n", cfg.Account.Stake, cfg.Risk.TargetProfit, cfg.Risk.StopLoss)
	fmt.Printf("  Data: %s  Execution: %s\n", cfg.Broker.Data, mode)
	fmt.Printf("  Journal: %s  Control: %s\n", cfg.Journal.Type, cfg.Control.Backend)
	return nil
}
