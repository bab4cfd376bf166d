// Package leaderboard keeps the community ranking of challenge participants.
package leaderboard

import (
	"sort"
	"unicode/utf8"
)

const (
	// MaxEntries caps the persisted board.
	MaxEntries = 20
	// MaxNameLength is the rune length beyond which names are truncated.
	MaxNameLength = 15
	// DefaultAvatar marks entries synthesised for the local user.
	DefaultAvatar = "👤"
)

var avatars = [10]string{"🌎", "🌱", "🌞", "🌊", "🍃", "🌳", "♻️", "💧", "☀️", "🦋"}

type Entry struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Avatar string `json:"avatar"`
}

// Ranked is an entry as shown on the board.
type Ranked struct {
	Entry
	Rank          int  `json:"rank"`
	IsCurrentUser bool `json:"is_current_user"`
}

// LocalUser is the visitor the board is refreshed for.
type LocalUser struct {
	Name   string
	Active bool
	Score  int
}

// Seed is the first-run community board.
func Seed() []Entry {
	return []Entry{
		{Name: "EcoWarrior123", Score: 1500, Avatar: "🌎"},
		{Name: "GreenGuru", Score: 1200, Avatar: "🌱"},
		{Name: "SustainaStar", Score: 1000, Avatar: "✨"},
		{Name: "PlanetPal", Score: 850, Avatar: "💚"},
		{Name: "EcoExplorer", Score: 700, Avatar: "🧭"},
	}
}

// DisplayName truncates name to MaxNameLength runes and appends "..." when
// anything was cut.
func DisplayName(name string) string {
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	return string([]rune(name)[:MaxNameLength]) + "..."
}

// Avatar picks the glyph for a display name from its rune length.
func Avatar(displayName string) string {
	return avatars[utf8.RuneCountInString(displayName)%len(avatars)]
}

// Join puts name on the board with score, replacing any entry with the same
// display name. The returned slice is not sorted; call Refresh.
func Join(entries []Entry, name string, score int) ([]Entry, Entry) {
	display := DisplayName(name)
	entry := Entry{Name: display, Score: score, Avatar: Avatar(display)}
	return append(Remove(entries, display), entry), entry
}

// Remove drops every entry called name.
func Remove(entries []Entry, name string) []Entry {
	out := make([]Entry, 0, len(entries)+1)
	for _, e := range entries {
		if e.Name != name {
			out = append(out, e)
		}
	}
	return out
}

// UpdateScore sets the score of name if it is on the board.
func UpdateScore(entries []Entry, name string, score int) ([]Entry, bool) {
	out := append([]Entry(nil), entries...)
	for i := range out {
		if out[i].Name == name {
			out[i].Score = score
			return out, true
		}
	}
	return out, false
}

// Refresh adds the local user when they are named, missing and on an active
// challenge, sorts by descending score keeping the relative order of ties,
// and keeps the top MaxEntries. Refresh(Refresh(l, u), u) == Refresh(l, u).
func Refresh(entries []Entry, local LocalUser) []Entry {
	out := append([]Entry(nil), entries...)
	if local.Name != "" && local.Active && !contains(out, local.Name) {
		out = append(out, Entry{Name: local.Name, Score: local.Score, Avatar: DefaultAvatar})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > MaxEntries {
		out = out[:MaxEntries]
	}
	return out
}

// Rank numbers a refreshed board from 1 and flags the current user.
func Rank(entries []Entry, currentUser string) []Ranked {
	out := make([]Ranked, len(entries))
	for i, e := range entries {
		out[i] = Ranked{
			Entry:         e,
			Rank:          i + 1,
			IsCurrentUser: currentUser != "" && e.Name == currentUser,
		}
	}
	return out
}

// Position returns the 1-based rank of name, or 0 when absent.
func Position(entries []Entry, name string) int {
	for i, e := range entries {
		if e.Name == name {
			return i + 1
		}
	}
	return 0
}

func contains(entries []Entry, name string) bool {
	return Position(entries, name) > 0
}
