// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tablelog/pokerstats/internal/domain/ingest"
	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/internal/domain/ranking"
)

const defaultMaxUploadBytes = 16 << 20

// GamesHandler handles log uploads and stored-game reads.
type GamesHandler struct {
	deps           Dependencies
	maxUploadBytes int64
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps Dependencies, maxUploadBytes int64) *GamesHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &GamesHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

// uploadResponse mirrors the output record of the analysis pipeline.
type uploadResponse struct {
	Status     string               `json:"status"` // accepted | duplicate
	GamePeriod model.Period         `json:"game_period"`
	TotalHands int                  `json:"total_hands"`
	Players    []model.PlayerResult `json:"players"`
	Prize      *model.PrizeTable    `json:"prize"`
}

// HandleGames handles POST /games (log upload) and GET /games (list).
func (h *GamesHandler) HandleGames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleUpload(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *GamesHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_log"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer file.Close()
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	records, err := ingest.ReadCSV(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, table, err := h.deps.AnalyzeLog(r.Context(), records)
	if err != nil {
		if errors.Is(err, ranking.ErrEmptyRoster) {
			writeError(w, http.StatusUnprocessableEntity, "empty_roster", WrapKind(op, ErrUnprocessable, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	accepted, duplicate, err := h.deps.SubmitResult(r.Context(), result, header.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if !accepted && !duplicate {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}

	status := "accepted"
	code := http.StatusAccepted
	if duplicate {
		status = "duplicate"
		code = http.StatusOK
	}
	writeJSON(w, code, uploadResponse{
		Status:     status,
		GamePeriod: result.GamePeriod,
		TotalHands: result.TotalHands,
		Players:    result.Players,
		Prize:      table,
	})
}

func (h *GamesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_games"
	games, err := h.deps.ListGames(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// HandleGameByID handles GET /games/{game_id} requests.
func (h *GamesHandler) HandleGameByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_game"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/games/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	game, err := h.deps.GetGame(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, game)
}
