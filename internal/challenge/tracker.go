package challenge

import (
	"fmt"
	"math/rand"
	"time"
)

// PointsPerDay converts completed days to leaderboard score.
const PointsPerDay = 50

// Status is the observable phase of a challenge.
type Status string

const (
	NotStarted Status = "not_started"
	InProgress Status = "in_progress"
	Completed  Status = "completed"
)

// Milestone is a one-shot event raised by CompleteDay.
type Milestone string

const (
	MilestoneNone     Milestone = ""
	MilestoneOneWeek  Milestone = "one_week"
	MilestoneHalfway  Milestone = "halfway"
	MilestoneComplete Milestone = "complete"
)

var milestoneDays = map[int]Milestone{
	7:      MilestoneOneWeek,
	15:     MilestoneHalfway,
	Length: MilestoneComplete,
}

var milestoneMessages = map[Milestone][2]string{
	MilestoneOneWeek:  {"One Week In!", "You've completed your first week! Keep up the great work!"},
	MilestoneHalfway:  {"Halfway There!", "You're halfway through the challenge! The planet thanks you!"},
	MilestoneComplete: {"Challenge Complete!", "Congratulations on completing your 30-day challenge!"},
}

// Title and Message are the modal texts for m.
func (m Milestone) Title() string   { return milestoneMessages[m][0] }
func (m Milestone) Message() string { return milestoneMessages[m][1] }

// State is a visitor's challenge progress. DaysCompleted is the current day
// number: 1 right after Start, and it keeps counting past Length.
type State struct {
	Program       Program `json:"program,omitempty"`
	DaysCompleted int     `json:"days_completed"`
}

// Normalize applies the restore rules to a decoded state: an unknown program
// clears the state and a started program with no valid counter resumes at day 1.
func (s State) Normalize() State {
	if !s.Program.Valid() {
		return State{}
	}
	if s.DaysCompleted < 1 {
		s.DaysCompleted = 1
	}
	return s
}

func (s State) Status() Status {
	switch {
	case s.Program == "":
		return NotStarted
	case s.DaysCompleted >= Length:
		return Completed
	default:
		return InProgress
	}
}

// Active reports whether a program has been started.
func (s State) Active() bool {
	return s.Program != "" && s.DaysCompleted > 0
}

func (s State) Score() int {
	return s.DaysCompleted * PointsPerDay
}

// ProgressPercent is the share of the program done. It is not capped.
func (s State) ProgressPercent() float64 {
	return float64(s.DaysCompleted) / Length * 100
}

// Today returns the action and tip for the current day.
func (s State) Today() (DailyAction, error) {
	if s.Program == "" {
		return DailyAction{}, ErrNotStarted
	}
	return ActionFor(s.Program, s.DaysCompleted)
}

// Start begins p at day 1 from any state.
func Start(p Program) (State, error) {
	if !p.Valid() {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownProgram, p)
	}
	return State{Program: p, DaysCompleted: 1}, nil
}

// CompleteDay advances the counter by one. Completed challenges keep
// counting; the milestone fires only on the exact day it names.
func (s State) CompleteDay() (State, Milestone, error) {
	if s.Status() == NotStarted {
		return s, MilestoneNone, ErrNotStarted
	}
	s.DaysCompleted++
	return s, milestoneDays[s.DaysCompleted], nil
}

var encouragements = []string{
	"Great job! Every action counts!",
	"You're making a difference! Keep it up!",
	"Proud of your commitment to sustainability!",
	"Imagine the impact if everyone took these small steps!",
	"Consistency is key - you're doing amazing!",
}

// Encouragement picks a message to show after a completed day.
func Encouragement(rnd *rand.Rand) string {
	return encouragements[rnd.Intn(len(encouragements))]
}

// ReminderDue reports whether last is on an earlier calendar day than now.
// A zero last means the visitor never completed a day and gets no reminder.
func ReminderDue(last, now time.Time) bool {
	if last.IsZero() {
		return false
	}
	last = last.In(now.Location())
	ly, lm, ld := last.Date()
	ny, nm, nd := now.Date()
	return ly != ny || lm != nm || ld != nd
}
