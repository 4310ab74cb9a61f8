// Package repository defines the game store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/tablelog/pokerstats/internal/domain/model"
)

// GameSummary is one stored game without per-player detail.
type GameSummary struct {
	GameID      string    `json:"game_id"`
	LogFileName string    `json:"log_file_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	TotalHands  int       `json:"total_hands"`
	PlayerCount int       `json:"player_count"`
	ImportDate  time.Time `json:"import_date"`
}

// GameDetail is a stored game with its per-player results.
type GameDetail struct {
	GameSummary
	Players []model.PlayerResult `json:"players"`
}

// PlayerAggregate is a player's statistics across all stored games.
type PlayerAggregate struct {
	PlayerName      string  `json:"player_name"`
	GamesPlayed     int     `json:"games_played"`
	TotalWins       int     `json:"total_wins"`
	TotalHands      int     `json:"total_hands"`
	AvgWinRate      float64 `json:"avg_win_rate"`
	TotalIncome     int     `json:"total_income"`
	AvgRank         float64 `json:"avg_rank"`
	FirstPlaceCount int     `json:"first_place_count"`
}

// Store provides read/write access to persisted game records.
type Store interface {
	// GameExists reports whether a game with the same start time and
	// player name set is already stored.
	GameExists(ctx context.Context, start time.Time, playerNames []string) (bool, error)

	// StoreGame persists a session result and returns the new game id.
	// Returns ErrDuplicateGame when the game is already stored.
	StoreGame(ctx context.Context, result *model.Result, logFileName string) (string, error)

	// ListGames returns all stored games, newest start time first.
	ListGames(ctx context.Context) ([]GameSummary, error)

	// GetGame returns one stored game with player results ordered by
	// rank. Returns ErrNotFound for an unknown id.
	GetGame(ctx context.Context, gameID string) (*GameDetail, error)

	// PlayerAggregates returns cross-game statistics, for one player
	// when name is non-empty, otherwise for all players ordered by
	// total income descending.
	PlayerAggregates(ctx context.Context, name string) ([]PlayerAggregate, error)

	// Close releases the underlying database.
	Close() error
}
