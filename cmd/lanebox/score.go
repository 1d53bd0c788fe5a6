package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivepin/lanebox/internal/scoring"
)

var flagScorePlayer string

var scoreCmd = &cobra.Command{
	Use:   "score <throws...>",
	Short: "Score a sequence of throws offline",
	Long: `Score a throw sequence without hardware or a server.

Each throw is five 0/1 flags in pin order (left two, left three,
centre five, right three, right two), 1 meaning the pin went down
on that throw.

Examples:
  lanebox score 11111               # a strike
  lanebox score 00100 11011         # 5 then the spare
  lanebox score --player Ada 11111 11111 11111`,
	Args: cobra.MinimumNArgs(1),
	Run:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&flagScorePlayer, "player", "Bowler", "Name on the scoresheet")
}

func runScore(_ *cobra.Command, args []string) {
	game := scoring.NewGame()
	if err := game.StartGame([]string{flagScorePlayer}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for i, arg := range args {
		pins, err := parseThrow(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Throw %d: %v\n", i+1, err)
			os.Exit(1)
		}
		res, err := game.ProcessBall(pins)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Throw %d: %v\n", i+1, err)
			os.Exit(1)
		}
		if res.GameComplete {
			if i < len(args)-1 {
				fmt.Fprintf(os.Stderr, "Game complete; %d throws ignored\n", len(args)-i-1)
			}
			break
		}
	}

	bowler := game.Bowlers()[0]
	fmt.Printf("%s\n", bowler.Name)
	for i, f := range bowler.Frames {
		if len(f.Balls) == 0 {
			break
		}
		fmt.Printf("  frame %2d: %-7s %4d\n", i+1, f.Display(), f.TotalScore)
	}
	fmt.Printf("  total: %d\n", bowler.TotalScore)
}

func parseThrow(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if len(s) != scoring.NumPins {
		return nil, fmt.Errorf("want %d flags, got %q", scoring.NumPins, s)
	}
	pins := make([]int, scoring.NumPins)
	for i, r := range s {
		switch r {
		case '0':
		case '1':
			pins[i] = 1
		default:
			return nil, fmt.Errorf("bad flag %q in %q", r, s)
		}
	}
	return pins, nil
}
