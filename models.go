package main

import (
	"time"

	"ecohub/internal/challenge"
	"ecohub/internal/tips"
)

// SessionState is everything remembered about one visitor. It is stored as
// a single JSON record under sessionKey(id).
type SessionState struct {
	Challenge      challenge.State `json:"challenge"`
	LastCompletion *time.Time      `json:"last_completion,omitempty"`
	Nickname       string          `json:"nickname,omitempty"`
	TipFeed        []tips.Tip      `json:"tip_feed,omitempty"`
	SavedRecipes   []string        `json:"saved_recipes,omitempty"`
	SavedTips      []tips.Tip      `json:"saved_tips,omitempty"`
}

type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"` // "admin"
	CreatedAt time.Time `json:"created_at"`
}

type ActivityLog struct {
	ID        int       `json:"id"`
	SessionID string    `json:"session_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

type Stats struct {
	Leader           string `json:"leader"`
	TotalPoints      int    `json:"total_points"`
	Participants     int    `json:"participants"`
	ActiveChallenges int    `json:"active_challenges"`
	DaysLogged       int    `json:"days_logged"`
}

// challengeView is the challenge as the page renders it.
type challengeView struct {
	Program         challenge.Program      `json:"program,omitempty"`
	Title           string                 `json:"title,omitempty"`
	Description     string                 `json:"description"`
	Day             int                    `json:"day"`
	Length          int                    `json:"length"`
	Status          challenge.Status       `json:"status"`
	ProgressPercent float64                `json:"progress_percent"`
	Score           int                    `json:"score"`
	Today           *challenge.DailyAction `json:"today,omitempty"`
}

func newChallengeView(s challenge.State) challengeView {
	v := challengeView{
		Program:     s.Program,
		Title:       s.Program.Title(),
		Description: s.Program.Description(),
		Day:         s.DaysCompleted,
		Length:      challenge.Length,
		Status:      s.Status(),
	}
	if v.Status == challenge.NotStarted {
		return v
	}
	v.ProgressPercent = s.ProgressPercent()
	v.Score = s.Score()
	if today, err := s.Today(); err == nil {
		v.Today = &today
	}
	return v
}
