// lanebox is the controller for one Canadian 5-pin bowling lane: it
// scores the game, drives the pin-setting machine and reports to the
// front desk server.
//
// Usage:
//
//	lanebox run                - Run the lane controller
//	lanebox score <throws...>  - Score a throw sequence offline
//	lanebox discover           - Locate the front desk server via multicast
//
// Global flags:
//
//	--config <path>     - Config file (default: search ~/.lanebox then ./configs)
//	--lane <id>         - Override the configured lane number
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfig   string
	flagLane     int
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lanebox",
	Short: "Lanebox - Canadian 5-pin lane controller",
	Long: `Lanebox runs one bowling lane: it scores Canadian 5-pin games,
drives the pin-setting machine, and keeps the front desk server
informed over TCP.

Available commands:
  run       - Run the lane controller daemon
  score     - Score a sequence of throws offline
  discover  - Locate the front desk server via multicast

Examples:
  lanebox run
  lanebox run --config ./configs/lane3.yaml --lane 3
  lanebox score 11111 00100 01010
  lanebox discover`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().IntVar(&flagLane, "lane", 0, "Lane number (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(discoverCmd)
}
