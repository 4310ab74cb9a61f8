package loggen

import (
	"fmt"
	"os"

	"github.com/tablelog/pokerstats/pkg/logger"
)

// SetupLogging initializes the structured logger for the generator.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the log generator tool.
func ShowHelp() {
	os.Stdout.WriteString(`Poker Log Generator
===================

Generates synthetic PokerNow session exports for testing the stats
service, and can upload them to a running instance.

Usage:
  go run cmd/gen-logs/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8090")
  -games int
        Number of sessions to generate (default 1)
  -players int
        Players per session (default 6)
  -hands int
        Hands per session (default 40)
  -stack int
        Chips granted per admin approval (default 20000)
  -rebuy float
        Probability a busted player rebuys (default 0.5)
  -seed int
        RNG seed; 0 uses the current time
  -out string
        Output directory for CSV files (default "testdata/generated")
  -upload
        Upload each generated log to the service
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Generate one session locally
  go run cmd/gen-logs/main.go

  # Generate five reproducible sessions and upload them
  go run cmd/gen-logs/main.go -games 5 -seed 42 -upload

  # Large table with frequent rebuys
  go run cmd/gen-logs/main.go -players 9 -hands 120 -rebuy 0.8
`)
}
