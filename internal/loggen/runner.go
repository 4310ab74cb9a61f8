package loggen

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tablelog/pokerstats/internal/domain/ingest"
	"github.com/tablelog/pokerstats/internal/domain/roster"
	"github.com/tablelog/pokerstats/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run generates the configured number of sessions, writes each to a CSV
// file, self-checks that the pipeline can read it back, and optionally
// uploads it to a running service.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	logger.Get().Info(ctx, "starting log generator",
		logger.Int("games", cfg.NumGames),
		logger.Int("players", cfg.NumPlayers),
		logger.Int("hands", cfg.NumHands),
		logger.Any("seed", seed),
		logger.String("outputDir", cfg.OutputDir),
		logger.Any("upload", cfg.Upload),
	)

	if err := os.MkdirAll(cfg.OutputDir, directoryPermission); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var client *HTTPClient
	if cfg.Upload {
		client = newHTTPClient(cfg.Timeout)
		if err := checkServiceHealth(ctx, client, cfg); err != nil {
			return fmt.Errorf("service health check failed: %w", err)
		}
	}

	// Distinct start times per game so the duplicate guard considers
	// each session new.
	gameStart := time.Now().UTC().Add(-time.Duration(cfg.NumGames) * 24 * time.Hour)

	for i := 0; i < cfg.NumGames; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		default:
		}

		game := Generate(ctx, cfg, rng, gameStart.Add(time.Duration(i)*24*time.Hour))
		data, err := encodeCSV(game)
		if err != nil {
			return fmt.Errorf("failed to encode game %d: %w", i, err)
		}
		if err := verifyGame(game, data); err != nil {
			return fmt.Errorf("self-check failed for game %d: %w", i, err)
		}

		filename := fmt.Sprintf("poker_now_log_%d_%s.csv", i+1, time.Now().Format("20060102_150405"))
		path := filepath.Join(cfg.OutputDir, filename)
		if err := os.WriteFile(path, data, filePermission); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		stats.GamesGenerated++
		stats.LinesWritten += len(game.Rows)

		if cfg.Verbose {
			logger.Get().Info(ctx, "game written",
				logger.String("path", path),
				logger.Int("hands", game.Hands),
				logger.Int("lines", len(game.Rows)),
			)
		}

		if cfg.Upload {
			if err := uploadGame(ctx, client, cfg, game, filename, data, stats); err != nil {
				logger.Get().Warn(ctx, "upload problem", logger.String("file", filename), logger.Error(err))
			}
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, cfg *Config) error {
	resp, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(ctx, "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// encodeCSV renders the game rows with the entry,at,order header.
func encodeCSV(game *Game) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"entry", "at", "order"}); err != nil {
		return nil, err
	}
	if err := w.WriteAll(game.Rows); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// verifyGame feeds the rendered CSV back through the ingest layer and
// checks the roster and hand count against what was simulated.
func verifyGame(game *Game, data []byte) error {
	records, err := ingest.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("generated CSV unreadable: %w", err)
	}
	entries := ingest.Order(records)
	r := roster.Extract(entries)
	if r.Size() != len(game.Players) {
		return fmt.Errorf("roster size %d, expected %d", r.Size(), len(game.Players))
	}
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("gamesGenerated", stats.GamesGenerated),
		logger.Int("linesWritten", stats.LinesWritten),
		logger.Int("gamesUploaded", stats.GamesUploaded),
		logger.Int("gamesAccepted", stats.GamesAccepted),
		logger.Int("gamesDuplicate", stats.GamesDuplicate),
		logger.Int("gamesFailed", stats.GamesFailed),
		logger.String("duration", stats.Duration.String()),
	)
}
