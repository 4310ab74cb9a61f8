package loggen

import "time"

// Config holds configuration for the log generator
type Config struct {
	BaseURL      string        // Base URL of the service
	NumGames     int           // Number of sessions to generate
	NumPlayers   int           // Players per session
	NumHands     int           // Hands per session
	InitialStack int           // Chips granted per admin approval
	RebuyChance  float64       // Probability a busted player rebuys
	Seed         int64         // RNG seed (0 means time-based)
	OutputDir    string        // Directory for generated CSV files
	Upload       bool          // Upload generated logs to the service
	Timeout      time.Duration // HTTP request timeout
	LogFile      string        // Log file for generator output
	Verbose      bool          // Enable verbose logging
}

// Stats holds generator run statistics
type Stats struct {
	GamesGenerated int
	LinesWritten   int
	GamesUploaded  int
	GamesAccepted  int
	GamesDuplicate int
	GamesFailed    int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}

// uploadAck is the subset of the upload response the generator checks.
type uploadAck struct {
	Status     string `json:"status"`
	TotalHands int    `json:"total_hands"`
	Players    []struct {
		UserName string `json:"user_name"`
	} `json:"players"`
}
