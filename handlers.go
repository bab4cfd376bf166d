package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ecohub/internal/challenge"
	"ecohub/internal/eco"
	"ecohub/internal/events"
	"ecohub/internal/leaderboard"
	"ecohub/internal/logging"
	"ecohub/internal/recipes"
	"ecohub/internal/tips"
)

const (
	sessionCookie = "ecohub_session"
	activityLimit = 50
)

type ctxKey int

const sessionCtxKey ctxKey = iota

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionCtxKey).(string)
	return id
}

// sessionMiddleware makes sure every visitor carries a session cookie.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(sessionCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   365 * 86400,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader through the recorder.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacking not supported")
	}
	return h.Hijack()
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logging.Log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.statusCode,
			"duration": time.Since(start),
		}).Debug("Request handled")
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Log.WithError(err).Warn("Error encoding response")
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func serverError(w http.ResponseWriter, msg string, err error) {
	http.Error(w, msg, http.StatusInternalServerError)
	logging.Log.WithError(err).Error(msg)
}

func (s *Server) handleFootprint(w http.ResponseWriter, r *http.Request) {
	var form eco.FootprintForm
	if err := decodeBody(r, &form); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	fp := eco.ComputeFootprint(form.Sanitize())

	s.logActivity(r.Context(), sessionID(r.Context()), "footprint_calculated",
		fmt.Sprintf("%.0f kg CO2/month (%s)", fp.Total, fp.Tier.Name), 0)

	respondJSON(w, http.StatusOK, fp)
}

func (s *Server) handleSolar(w http.ResponseWriter, r *http.Request) {
	var form eco.SolarForm
	if err := decodeBody(r, &form); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	est := eco.ComputeEnergyProduction(form.Sanitize())

	s.logActivity(r.Context(), sessionID(r.Context()), "solar_simulated",
		fmt.Sprintf("%.0f kWh/month", est.EnergyProducedKwhPerMonth), 0)

	respondJSON(w, http.StatusOK, est)
}

type recipeResult struct {
	recipes.Recipe
	Highlighted []recipes.HighlightedIngredient `json:"highlighted"`
	Matches     int                             `json:"matches"`
}

func (s *Server) handleRecipeSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients string `json:"ingredients"`
		Dietary     string `json:"dietary"`
		Time        string `json:"time"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	dietary := strings.ToLower(strings.TrimSpace(req.Dietary))
	if dietary == "" {
		dietary = recipes.DietaryAll
	}
	ingredients := recipes.ParseIngredients(req.Ingredients)
	matched := recipes.Match(s.recipes, ingredients, dietary, recipes.ParseTimeBand(req.Time))

	results := make([]recipeResult, 0, len(matched))
	for _, rec := range matched {
		results = append(results, recipeResult{
			Recipe:      rec,
			Highlighted: recipes.Highlight(rec, ingredients),
			Matches:     rec.MatchCount(ingredients),
		})
	}

	response := map[string]interface{}{
		"results": results,
	}
	if len(results) == 0 {
		s.mu.Lock()
		suggestion, ok := recipes.Suggest(s.recipes, s.rnd)
		s.mu.Unlock()
		if ok {
			response["suggestion"] = suggestion
		}
	}

	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSaveRecipe(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, ok := recipes.Find(s.recipes, id)
	if !ok {
		http.Error(w, "Recipe not found", http.StatusNotFound)
		return
	}

	ctx := r.Context()
	sid := sessionID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadSession(ctx, sid)
	if err != nil {
		serverError(w, "Failed to load session", err)
		return
	}

	var inserted bool
	st.SavedRecipes, inserted = recipes.AddSaved(st.SavedRecipes, rec.ID)
	if inserted {
		if err := s.saveSession(ctx, sid, st); err != nil {
			serverError(w, "Failed to save recipe", err)
			return
		}
		s.logActivity(ctx, sid, "recipe_saved", rec.Name, 0)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"saved":   inserted,
		"recipes": st.SavedRecipes,
	})
}

func (s *Server) handleSavedRecipes(w http.ResponseWriter, r *http.Request) {
	st, err := s.loadSession(r.Context(), sessionID(r.Context()))
	if err != nil {
		serverError(w, "Failed to load session", err)
		return
	}

	saved := []recipes.Recipe{}
	for _, id := range st.SavedRecipes {
		if rec, ok := recipes.Find(s.recipes, id); ok {
			saved = append(saved, rec)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recipes": saved,
	})
}

type eventView struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Type     string `json:"type"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	eventType := r.URL.Query().Get("type")
	if eventType == "" {
		eventType = events.TypeAll
	}

	matched := events.Match(s.events, location, eventType)
	if r.URL.Query().Get("upcoming") == "true" {
		matched = events.Upcoming(matched, s.now())
	}

	views := make([]eventView, 0, len(matched))
	for _, e := range matched {
		views = append(views, eventView{
			Name:     e.Name,
			Location: events.DisplayLocation(e),
			Date:     events.FormatDate(e, time.UTC),
			Type:     e.Type,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": views,
	})
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	type programView struct {
		Program     challenge.Program `json:"program"`
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Length      int               `json:"length"`
	}

	list := make([]programView, 0, len(challenge.Programs))
	for _, p := range challenge.Programs {
		list = append(list, programView{
			Program:     p,
			Title:       p.Title(),
			Description: p.Description(),
			Length:      challenge.Length,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"challenges": list,
	})
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	st, err := s.loadSession(r.Context(), sessionID(r.Context()))
	if err != nil {
		serverError(w, "Failed to load session", err)
		return
	}

	respondJSON(w, http.StatusOK, newChallengeView(st.Challenge))
}

func (s *Server) handleStartChallenge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Program challenge.Program `json:"program"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	started, err := challenge.Start(req.Program)
	if errors.Is(err, challenge.ErrUnknownProgram) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	sid := sessionID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadSession(ctx, sid)
	if err != nil {
		serverError(w, "Failed to load session", err)
		return
	}
	st.Challenge = started

	if err := s.saveSession(ctx, sid, st); err != nil {
		serverError(w, "Failed to start challenge", err)
		return
	}

	s.logActivity(ctx, sid, "challenge_started", started.Program.Title(), 0)

	if st.Nickname != "" {
		if err := s.postScore(ctx, st.Nickname, started.Score(), true); err != nil {
			logging.Log.WithError(err).Error("Error updating leaderboard")
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"challenge": newChallengeView(st.Challenge),
	})
}

func (s *Server) handleCompleteDay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadSession(ctx, sid)
	if err != nil {
		serverError(w, "Failed to load session", err)
		return
	}

	next, milestone, err := st.Challenge.CompleteDay()
	if errors.Is(err, challenge.ErrNotStarted) {
		http.Error(w, "Please select a challenge first", http.StatusConflict)
		return
	}

	st.Challenge = next
	st.LastCompletion = utcPtr(s.now())
	if err := s.saveSession(ctx, sid, st); err != nil {
		serverError(w, "Failed to complete day", err)
		return
	}

	s.logActivity(ctx, sid, "day_completed",
		fmt.Sprintf("%s day %d", next.Program.Title(), next.DaysCompleted), challenge.PointsPerDay)

	if st.Nickname != "" {
		if err := s.postScore(ctx, st.Nickname, next.Score(), false); err != nil {
			logging.Log.WithError(err).Error("Error updating leaderboard")
		}
	}

	response := map[string]interface{}{
		"success":       true,
		"challenge":     newChallengeView(next),
		"encouragement": challenge.Encouragement(s.rnd),
	}
	if milestone != challenge.MilestoneNone {
		response["milestone"] = s.broadcastMilestone(st.Nickname, milestone)
	}

	respondJSON(w, http.StatusOK, response)
}

// postScore sets the score of a named visitor on the board, joining them when
// join is set and they are missing. Callers hold s.mu.
func (s *Server) postScore(ctx context.Context, nickname string, score int, join bool) error {
	board, err := s.loadLeaderboard(ctx)
	if err != nil {
		return err
	}

	display := leaderboard.DisplayName(nickname)
	board, found := leaderboard.UpdateScore(board, display, score)
	if !found {
		if !join {
			return nil
		}
		board, _ = leaderboard.Join(board, nickname, score)
	}
	board = leaderboard.Refresh(board, leaderboard.LocalUser{})

	if err := s.saveLeaderboard(ctx, board); err != nil {
		return err
	}
	s.broadcastLeaderboardUpdate(board)
	return nil
}

type milestoneView struct {
	Name      string              `json:"name,omitempty"`
	Milestone challenge.Milestone `json:"milestone"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
}

func (s *Server) broadcastMilestone(nickname string, m challenge.Milestone) milestoneView {
	view := milestoneView{
		Name:      leaderboard.DisplayName(nickname),
		Milestone: m,
		Title:     m.Title(),
		Message:   m.Message(),
	}
	if nickname != "" {
		s.broadcastUpdate("milestone", view)
	}
	return view
}

func (s *Server) broadcastLeaderboardUpdate(board []leaderboard.Entry) {
	s.broadcastUpdate("leaderboard-update", map[string]interface{}{
		"leaderboard": leaderboard.Rank(board, ""),
	})
}

// handleGetLeaderboard stores the refreshed board it returns, so a named
// visitor on an active challenge who is missing from the board is added.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.loadLeaderboard(ctx)
	if err != nil {
		serverError(w, "Failed to get leaderboard", err)
		return
	}
	st, err := s.loadSession(ctx, sessionID(ctx))
	if err != nil {
		serverError(w, "Failed to load session", err)
		return
	}

	local := leaderboard.LocalUser{
		Name:   leaderboard.DisplayName(st.Nickname),
		Active: st.Challenge.Active(),
		Score:  st.Challenge.Score(),
	}
	refreshed := leaderboard.Refresh(board, local)
	if !slices.Equal(board, refreshed) {
		if err := s.saveLeaderboard(ctx, refreshed); err != nil {
			serverError(w, "Failed to save leaderboard", err)
			return
		}
		s.broadcastLeaderboardUpdate(refreshed)
	}

	stats, err := s.getStats(ctx, refreshed)
	if err != nil {
		logging.Log.WithError(err).Warn("Error getting stats")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": leaderboard.Rank(refreshed, local.Name),
		"position":    leaderboard.Position(refreshed, local.Name),
		"stats":       stats,
	})
}

func (s *Server) handleJoinLeaderboard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	sid := sessionID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadSession(ctx, sid)
	if err != nil {
		serverError(w, "Failed to load session", err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = st.Nickname
	}
	if name == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"joined": false,
		})
		return
	}

	board, err := s.loadLeaderboard(ctx)
	if err != nil {
		serverError(w, "Failed to get leaderboard", err)
		return
	}

	display := leaderboard.DisplayName(name)
	if st.Nickname != "" {
		if previous := leaderboard.DisplayName(st.Nickname); previous != display {
			board = leaderboard.Remove(board, previous)
		}
	}
	board, entry := leaderboard.Join(board, name, st.Challenge.Score())
	board = leaderboard.Refresh(board, leaderboard.LocalUser{})

	st.Nickname = name
	if err := s.saveLeaderboard(ctx, board); err != nil {
		serverError(w, "Failed to join leaderboard", err)
		return
	}
	if err := s.saveSession(ctx, sid, st); err != nil {
		serverError(w, "Failed to save session", err)
		return
	}

	s.logActivity(ctx, sid, "leaderboard_joined", display, 0)
	s.broadcastLeaderboardUpdate(board)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"joined":      true,
		"entry":       entry,
		"position":    leaderboard.Position(board, display),
		"leaderboard": leaderboard.Rank(board, display),
	})
}

func (s *Server) handleGetTips(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadSession(ctx, sid)
	if err != nil {
		serverError(w, "Failed to load session", err)
		return
	}

	if len(st.TipFeed) == 0 {
		st.TipFeed = tips.Initial(s.tips, s.rnd)
		if err := s.saveSession(ctx, sid, st); err != nil {
			serverError(w, "Failed to save tips", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tips": st.TipFeed,
	})
}

func (s *Server) handleNextTip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	tip, feed, err := s.rotateTip(ctx, sid)
	if err != nil {
		serverError(w, "Failed to rotate tips", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tip":  tip,
		"tips": feed,
	})
}

// rotateTip pushes a random tip into a visitor's feed. Callers hold s.mu.
func (s *Server) rotateTip(ctx context.Context, sid string) (tips.Tip, []tips.Tip, error) {
	st, err := s.loadSession(ctx, sid)
	if err != nil {
		return tips.Tip{}, nil, err
	}

	var tip tips.Tip
	tip, st.TipFeed = tips.PushRandom(st.TipFeed, s.tips, s.rnd)
	if err := s.saveSession(ctx, sid, st); err != nil {
		return tips.Tip{}, nil, err
	}
	return tip, st.TipFeed, nil
}

func (s *Server) handleSaveTip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	tip, ok := tips.Find(s.tips, req.Title)
	if !ok {
		http.Error(w, "Tip not found", http.StatusNotFound)
		return
	}

	ctx := r.Context()
	sid := sessionID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadSession(ctx, sid)
	if err != nil {
		serverError(w, "Failed to load session", err)
		return
	}

	var inserted bool
	st.SavedTips, inserted = tips.Save(st.SavedTips, tip)
	if inserted {
		if err := s.saveSession(ctx, sid, st); err != nil {
			serverError(w, "Failed to save tip", err)
			return
		}
		s.logActivity(ctx, sid, "tip_saved", tip.Title, 0)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"saved": inserted,
		"tips":  st.SavedTips,
	})
}

func (s *Server) handleSavedTips(w http.ResponseWriter, r *http.Request) {
	st, err := s.loadSession(r.Context(), sessionID(r.Context()))
	if err != nil {
		serverError(w, "Failed to load session", err)
		return
	}

	saved := st.SavedTips
	if saved == nil {
		saved = []tips.Tip{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tips": saved,
	})
}

func (s *Server) handleClimate(w http.ResponseWriter, r *http.Request) {
	reading, ok := s.cachedReading()
	if !ok || r.URL.Query().Get("refresh") == "true" {
		reading = s.refreshClimate(r.Context())
	}

	respondJSON(w, http.StatusOK, reading)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	logs, err := s.getActivity(r.Context(), sessionID(r.Context()), activityLimit)
	if err != nil {
		serverError(w, "Failed to get activity", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"activity": logs,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	board, err := s.loadLeaderboard(r.Context())
	if err != nil {
		serverError(w, "Failed to get leaderboard", err)
		return
	}

	stats, err := s.getStats(r.Context(), board)
	if err != nil {
		serverError(w, "Failed to get stats", err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
