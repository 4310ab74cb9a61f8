package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/tablelog/pokerstats/internal/loggen"
)

// Default configuration constants.
const (
	defaultGames       = 1
	defaultPlayers     = 6
	defaultHands       = 40
	defaultStack       = 20000
	defaultRebuyChance = 0.5
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8090", "Base URL of the service")
		games    = flag.Int("games", defaultGames, "Number of sessions to generate")
		players  = flag.Int("players", defaultPlayers, "Players per session")
		hands    = flag.Int("hands", defaultHands, "Hands per session")
		stack    = flag.Int("stack", defaultStack, "Chips granted per admin approval")
		rebuy    = flag.Float64("rebuy", defaultRebuyChance, "Probability a busted player rebuys")
		seed     = flag.Int64("seed", 0, "RNG seed; 0 uses the current time")
		outDir   = flag.String("out", "testdata/generated", "Output directory for CSV files")
		upload   = flag.Bool("upload", false, "Upload each generated log to the service")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		showHelp = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *showHelp {
		loggen.ShowHelp()
		return
	}

	if err := loggen.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &loggen.Config{
		BaseURL:      *baseURL,
		NumGames:     *games,
		NumPlayers:   *players,
		NumHands:     *hands,
		InitialStack: *stack,
		RebuyChance:  *rebuy,
		Seed:         *seed,
		OutputDir:    *outDir,
		Upload:       *upload,
		Timeout:      *timeout,
		Verbose:      *verbose,
	}

	if err := loggen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
		return
	}
}
