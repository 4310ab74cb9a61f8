// Package repository defines the game store interface and errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/pkg/metrics"
)

// timeLayout is how timestamps are stored; string equality doubles as
// time equality for the duplicate-game check.
const timeLayout = time.RFC3339

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	cfg := newOptions(opts...)
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "pokerstats", "pokerstats.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpenConns) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			game_id       TEXT PRIMARY KEY,
			log_file_name TEXT,
			start_time    TEXT NOT NULL,
			end_time      TEXT NOT NULL,
			total_hands   INTEGER NOT NULL,
			player_count  INTEGER NOT NULL,
			import_date   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			player_id   INTEGER PRIMARY KEY AUTOINCREMENT,
			player_name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS game_players (
			game_id         TEXT NOT NULL REFERENCES games(game_id) ON DELETE CASCADE,
			player_id       INTEGER NOT NULL REFERENCES players(player_id),
			rank            INTEGER NOT NULL,
			total_rebuy_amt INTEGER NOT NULL,
			total_win_cnt   INTEGER NOT NULL,
			total_hand_cnt  INTEGER NOT NULL,
			total_chip      INTEGER NOT NULL,
			total_income    INTEGER NOT NULL,
			rebuy_cnt       INTEGER NOT NULL,
			PRIMARY KEY (game_id, player_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_start_time ON games(start_time)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GameExists reports whether a game with the same start time and player
// name set is already stored.
func (s *SQLiteStore) GameExists(ctx context.Context, start time.Time, playerNames []string) (bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, player_count FROM games WHERE start_time = ?`,
		start.UTC().Format(timeLayout))
	if err != nil {
		return false, fmt.Errorf("query games by start time: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		id    string
		count int
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.count); err != nil {
			return false, fmt.Errorf("scan game row: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate game rows: %w", err)
	}

	want := make([]string, len(playerNames))
	copy(want, playerNames)
	sort.Strings(want)

	for _, c := range candidates {
		if c.count != len(want) {
			continue
		}
		got, err := s.playerNamesForGame(ctx, c.id)
		if err != nil {
			return false, err
		}
		sort.Strings(got)
		if equalStrings(got, want) {
			return true, nil
		}
	}
	return false, nil
}

func (s *SQLiteStore) playerNamesForGame(ctx context.Context, gameID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.player_name
		FROM game_players gp
		JOIN players p ON gp.player_id = p.player_id
		WHERE gp.game_id = ?`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query game players: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan player name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// StoreGame persists a session result in one transaction and returns
// the new game id.
func (s *SQLiteStore) StoreGame(ctx context.Context, result *model.Result, logFileName string) (string, error) {
	startWrite := time.Now()
	defer func() {
		metrics.RecordStoreLatency(float64(time.Since(startWrite).Milliseconds()))
	}()

	names := make([]string, 0, len(result.Players))
	for _, p := range result.Players {
		names = append(names, p.UserName)
	}
	exists, err := s.GameExists(ctx, result.GamePeriod.Start, names)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrDuplicateGame
	}

	gameID := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO games (game_id, log_file_name, start_time, end_time, total_hands, player_count, import_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gameID,
		logFileName,
		result.GamePeriod.Start.UTC().Format(timeLayout),
		result.GamePeriod.End.UTC().Format(timeLayout),
		result.TotalHands,
		len(result.Players),
		time.Now().UTC().Format(timeLayout),
	); err != nil {
		return "", fmt.Errorf("insert game: %w", err)
	}

	for _, p := range result.Players {
		playerID, err := s.getOrCreatePlayer(ctx, tx, p.UserName)
		if err != nil {
			return "", err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_players (game_id, player_id, rank, total_rebuy_amt, total_win_cnt, total_hand_cnt, total_chip, total_income, rebuy_cnt)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			gameID, playerID, p.Rank, p.TotalRebuyAmt, p.TotalWinCnt,
			p.TotalHandCnt, p.TotalChip, p.TotalIncome, p.RebuyCnt,
		); err != nil {
			return "", fmt.Errorf("insert game player: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return gameID, nil
}

func (s *SQLiteStore) getOrCreatePlayer(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT player_id FROM players WHERE player_name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup player: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO players (player_name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("insert player: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("new player id: %w", err)
	}
	return id, nil
}

// ListGames returns all stored games, newest start time first.
func (s *SQLiteStore) ListGames(ctx context.Context) ([]GameSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, log_file_name, start_time, end_time, total_hands, player_count, import_date
		FROM games
		ORDER BY start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []GameSummary
	for rows.Next() {
		g, err := scanGameSummary(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// GetGame returns one stored game with player results ordered by rank.
func (s *SQLiteStore) GetGame(ctx context.Context, gameID string) (*GameDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT game_id, log_file_name, start_time, end_time, total_hands, player_count, import_date
		FROM games
		WHERE game_id = ?`, gameID)
	summary, err := scanGameSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.player_name, gp.rank, gp.total_rebuy_amt, gp.total_win_cnt, gp.total_hand_cnt, gp.total_chip, gp.total_income, gp.rebuy_cnt
		FROM game_players gp
		JOIN players p ON gp.player_id = p.player_id
		WHERE gp.game_id = ?
		ORDER BY gp.rank`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query game players: %w", err)
	}
	defer rows.Close()

	detail := &GameDetail{GameSummary: summary}
	for rows.Next() {
		var p model.PlayerResult
		if err := rows.Scan(&p.UserName, &p.Rank, &p.TotalRebuyAmt, &p.TotalWinCnt,
			&p.TotalHandCnt, &p.TotalChip, &p.TotalIncome, &p.RebuyCnt); err != nil {
			return nil, fmt.Errorf("scan player result: %w", err)
		}
		detail.Players = append(detail.Players, p)
	}
	return detail, rows.Err()
}

// PlayerAggregates returns cross-game statistics per player.
func (s *SQLiteStore) PlayerAggregates(ctx context.Context, name string) ([]PlayerAggregate, error) {
	query := `
		SELECT
			p.player_name,
			COUNT(DISTINCT gp.game_id) AS games_played,
			SUM(gp.total_win_cnt) AS total_wins,
			SUM(gp.total_hand_cnt) AS total_hands,
			AVG(gp.total_win_cnt * 100.0 / NULLIF(gp.total_hand_cnt, 0)) AS avg_win_rate,
			SUM(gp.total_income) AS total_income,
			AVG(gp.rank) AS avg_rank,
			COUNT(CASE WHEN gp.rank = 1 THEN 1 END) AS first_place_count
		FROM players p
		JOIN game_players gp ON p.player_id = gp.player_id`
	args := []any{}
	if name != "" {
		query += ` WHERE p.player_name = ?`
		args = append(args, name)
	}
	query += ` GROUP BY p.player_name ORDER BY total_income DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query player aggregates: %w", err)
	}
	defer rows.Close()

	var aggs []PlayerAggregate
	for rows.Next() {
		var a PlayerAggregate
		var winRate sql.NullFloat64
		if err := rows.Scan(&a.PlayerName, &a.GamesPlayed, &a.TotalWins, &a.TotalHands,
			&winRate, &a.TotalIncome, &a.AvgRank, &a.FirstPlaceCount); err != nil {
			return nil, fmt.Errorf("scan player aggregate: %w", err)
		}
		a.AvgWinRate = winRate.Float64
		aggs = append(aggs, a)
	}
	return aggs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGameSummary(row rowScanner) (GameSummary, error) {
	var g GameSummary
	var start, end, imported string
	if err := row.Scan(&g.GameID, &g.LogFileName, &start, &end,
		&g.TotalHands, &g.PlayerCount, &imported); err != nil {
		return GameSummary{}, err
	}
	g.StartTime, _ = time.Parse(timeLayout, start)
	g.EndTime, _ = time.Parse(timeLayout, end)
	g.ImportDate, _ = time.Parse(timeLayout, imported)
	return g, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
