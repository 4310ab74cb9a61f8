// Package rules holds the named text-extraction rules used to recover
// game state from raw PokerNow log lines. Each rule is an independent
// predicate/extractor so upstream format drift can be isolated and
// tested per rule.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	handStartRe     = regexp.MustCompile(`-- starting hand #(\d+) \(id: ([a-z0-9]+)\)`)
	playerTokenRe   = regexp.MustCompile(`"([^@]+) @ ([^"]+)"`)
	stackLineRe     = regexp.MustCompile(`Player stacks: (.*)`)
	stackEntryRe    = regexp.MustCompile(`"([^@]+) @ ([^"]+)" \((\d+)\)`)
	adminApprovalRe = regexp.MustCompile(`The admin approved the player "([^@]+) @ [^"]+" participation with a stack of (\d+)`)
)

// PlayerToken is one "name @ id" occurrence in a log line.
type PlayerToken struct {
	Name string
	ID   string
}

// StackEntry is one player's chip count inside a stack broadcast line.
type StackEntry struct {
	Name  string
	ID    string
	Chips int
}

// HandStart matches the "-- starting hand #N (id: H)" marker and
// returns the hand number and identifier.
func HandStart(entry string) (number int, id string, ok bool) {
	m := handStartRe.FindStringSubmatch(entry)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return n, m[2], true
}

// PlayerTokens returns every quoted "name @ id" occurrence in the line,
// names and ids trimmed of surrounding whitespace.
func PlayerTokens(entry string) []PlayerToken {
	ms := playerTokenRe.FindAllStringSubmatch(entry, -1)
	if ms == nil {
		return nil
	}
	tokens := make([]PlayerToken, 0, len(ms))
	for _, m := range ms {
		tokens = append(tokens, PlayerToken{
			Name: strings.TrimSpace(m[1]),
			ID:   strings.TrimSpace(m[2]),
		})
	}
	return tokens
}

// Mentions reports whether the line contains the exact quoted identity
// token for the given player.
func Mentions(entry, name, id string) bool {
	return strings.Contains(entry, fmt.Sprintf("%q", name+" @ "+id))
}

// PotCollect matches a pot-collection phrase for the given player and
// returns the collected amount. The cheap substring checks guard the
// per-player regexp from running on unrelated lines.
func PotCollect(entry, name, id string) (amount int, ok bool) {
	if !strings.Contains(entry, "collected") || !strings.Contains(entry, "from pot") {
		return 0, false
	}
	re := regexp.MustCompile(fmt.Sprintf(`"%s @ %s" collected (\d+) from pot`,
		regexp.QuoteMeta(name), regexp.QuoteMeta(id)))
	m := re.FindStringSubmatch(entry)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// AdminApproval matches the admin stake-approval phrase and returns the
// approved player name and stack amount. The session id inside the
// quoted token is deliberately a wildcard: approvals may carry a
// recycled id that differs from the player's first-seen one.
func AdminApproval(entry string) (name string, amount int, ok bool) {
	m := adminApprovalRe.FindStringSubmatch(entry)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(m[1]), n, true
}

// StackBroadcast matches a full-table "Player stacks: ..." line and
// returns every player's chip count listed on it.
func StackBroadcast(entry string) ([]StackEntry, bool) {
	m := stackLineRe.FindStringSubmatch(entry)
	if m == nil {
		return nil, false
	}
	ms := stackEntryRe.FindAllStringSubmatch(m[1], -1)
	entries := make([]StackEntry, 0, len(ms))
	for _, sm := range ms {
		chips, err := strconv.Atoi(sm[3])
		if err != nil {
			continue
		}
		entries = append(entries, StackEntry{
			Name:  strings.TrimSpace(sm[1]),
			ID:    strings.TrimSpace(sm[2]),
			Chips: chips,
		})
	}
	return entries, true
}
