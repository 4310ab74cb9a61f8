package loggen

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/tablelog/pokerstats/pkg/logger"
)

// Constants shaping the simulated sessions.
const (
	idAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	playerIDLen   = 10
	handIDLen     = 12
	snapshotEvery = 5
	smallBlind    = 100
	lineStep      = 3 * time.Second
	timeFormat    = "2006-01-02T15:04:05.000"
)

// baseNames seed the player roster; a numeric suffix keeps names unique
// when a session has more players than the list.
var baseNames = []string{
	"alice", "bob", "carol", "dave", "erin",
	"frank", "grace", "heidi", "ivan", "judy",
	"mallory", "oscar", "peggy", "trent", "walter",
}

// Game is one synthetic session rendered as ordered CSV rows.
type Game struct {
	Rows    [][]string // entry, at, order; newest entry first
	Players []string
	Hands   int
}

type simPlayer struct {
	name  string
	id    string
	stack int
	out   bool
}

// writer accumulates log lines with monotonically increasing timestamps,
// in chronological order. rendered reversed to match the export format.
type lineWriter struct {
	lines []string
	at    []time.Time
	now   time.Time
}

func (w *lineWriter) add(line string) {
	w.lines = append(w.lines, line)
	w.at = append(w.at, w.now)
	w.now = w.now.Add(lineStep)
}

// Generate simulates one poker session and renders it in the PokerNow
// export format: an entry,at,order header followed by rows newest
// first. Chips are conserved within every hand so downstream chip
// accounting can be checked against the sum of approvals.
func Generate(ctx context.Context, cfg *Config, rng *rand.Rand, start time.Time) *Game {
	players := make([]*simPlayer, cfg.NumPlayers)
	for i := range players {
		name := baseNames[i%len(baseNames)]
		if i >= len(baseNames) {
			name += strconv.Itoa(i/len(baseNames) + 1)
		}
		players[i] = &simPlayer{
			name:  name,
			id:    randomID(rng, playerIDLen),
			stack: cfg.InitialStack,
		}
	}

	w := &lineWriter{now: start.UTC()}
	for _, p := range players {
		w.add(fmt.Sprintf(
			"The admin approved the player %q participation with a stack of %d.",
			p.name+" @ "+p.id, cfg.InitialStack,
		))
	}

	handsPlayed := 0
	for h := 1; h <= cfg.NumHands; h++ {
		active := activePlayers(players)
		if len(active) < 2 {
			break
		}
		handsPlayed = h

		w.add(fmt.Sprintf("-- starting hand #%d (id: %s) --", h, randomID(rng, handIDLen)))
		playHand(w, rng, active)
		w.add(fmt.Sprintf("-- ending hand #%d --", h))

		handleBusts(w, cfg, rng, players)
		if h%snapshotEvery == 0 {
			w.add(stackLine(players))
		}
	}
	// Closing stack broadcast so final chip counts are always observable.
	w.add(stackLine(players))

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.name
	}

	game := &Game{Players: names, Hands: handsPlayed, Rows: renderRows(w)}
	logger.Get().Debug(ctx, "session generated",
		logger.Int("players", len(names)),
		logger.Int("hands", handsPlayed),
		logger.Int("lines", len(w.lines)),
	)
	return game
}

// playHand makes every active player commit chips or fold, then awards
// the pot to one contributor.
func playHand(w *lineWriter, rng *rand.Rand, active []*simPlayer) {
	pot := 0
	contributors := make([]*simPlayer, 0, len(active))
	for _, p := range active {
		if rng.Float64() < 0.25 && len(contributors) >= 2 {
			w.add(fmt.Sprintf("%q folds", p.name+" @ "+p.id))
			continue
		}
		bet := smallBlind + rng.Intn(p.stack/2+1)
		if bet > p.stack {
			bet = p.stack
		}
		p.stack -= bet
		pot += bet
		w.add(fmt.Sprintf("%q calls %d", p.name+" @ "+p.id, bet))
		contributors = append(contributors, p)
	}

	winner := contributors[rng.Intn(len(contributors))]
	winner.stack += pot
	w.add(fmt.Sprintf("%q collected %d from pot", winner.name+" @ "+winner.id, pot))
}

// handleBusts either rebuys a busted player via a fresh admin approval
// or records the elimination with a zero-chip stack broadcast.
func handleBusts(w *lineWriter, cfg *Config, rng *rand.Rand, players []*simPlayer) {
	for _, p := range players {
		if p.out || p.stack > 0 {
			continue
		}
		if rng.Float64() < cfg.RebuyChance {
			p.stack = cfg.InitialStack
			w.add(fmt.Sprintf(
				"The admin approved the player %q participation with a stack of %d.",
				p.name+" @ "+p.id, cfg.InitialStack,
			))
			continue
		}
		p.out = true
		w.add(stackLine(players))
	}
}

// stackLine renders a full-table stack broadcast for every player still
// seated, including any at zero chips.
func stackLine(players []*simPlayer) string {
	parts := make([]string, 0, len(players))
	for seat, p := range players {
		parts = append(parts, fmt.Sprintf("#%d %q (%d)", seat+1, p.name+" @ "+p.id, p.stack))
	}
	return "Player stacks: " + strings.Join(parts, " | ")
}

// renderRows converts accumulated lines to CSV rows, newest first, the
// way the real export orders them.
func renderRows(w *lineWriter) [][]string {
	n := len(w.lines)
	rows := make([][]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		rows = append(rows, []string{
			w.lines[i],
			w.at[i].Format(timeFormat) + "Z",
			strconv.Itoa(i),
		})
	}
	return rows
}

func activePlayers(players []*simPlayer) []*simPlayer {
	active := make([]*simPlayer, 0, len(players))
	for _, p := range players {
		if !p.out && p.stack > 0 {
			active = append(active, p)
		}
	}
	return active
}

func randomID(rng *rand.Rand, length int) string {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		sb.WriteByte(idAlphabet[rng.Intn(len(idAlphabet))])
	}
	return sb.String()
}
