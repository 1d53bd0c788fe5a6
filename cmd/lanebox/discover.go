package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivepin/lanebox/internal/netclient"
)

var flagDiscoverTimeout int

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Locate the front desk server via multicast",
	Long: `Send a multicast discovery request and print the first server
that answers. Useful when wiring up a new lane.

Examples:
  lanebox discover
  lanebox discover --timeout 10`,
	Run: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&flagDiscoverTimeout, "timeout", 30, "Seconds to wait for an answer")
}

func runDiscover(_ *cobra.Command, _ []string) {
	logger := newLogger(flagLogLevel)
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(flagDiscoverTimeout)*time.Second)
	defer cancel()

	host, port, err := netclient.Discover(ctx, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "No server found: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s:%d\n", host, port)
}
