package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecohub/internal/challenge"
	"ecohub/internal/climate"
	"ecohub/internal/eco"
	"ecohub/internal/leaderboard"
	"ecohub/internal/recipes"
	"ecohub/internal/tips"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct-horse"
)

type testEnv struct {
	s      *Server
	ts     *httptest.Server
	client *http.Client
	ctx    context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)

	cfg := Config{
		DBPath:        filepath.Join(t.TempDir(), "ecohub.db"),
		Climate:       climate.Config{URL: down.URL, Timeout: time.Second, Retries: 0},
		AuthSecret:    "test-secret",
		AdminEmail:    testAdminEmail,
		AdminPassword: testAdminPassword,
	}

	s, err := NewServer(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.router)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{s: s, ts: ts, client: &http.Client{Jar: jar}, ctx: ctx}
}

// newVisitor returns a client with its own cookie jar, i.e. another session.
func (e *testEnv) newVisitor(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (e *testEnv) call(t *testing.T, c *http.Client, method, path string, body, out interface{}) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) sessionOf(t *testing.T, c *http.Client) string {
	t.Helper()
	u, err := url.Parse(e.ts.URL)
	require.NoError(t, err)
	for _, cookie := range c.Jar.Cookies(u) {
		if cookie.Name == sessionCookie {
			return cookie.Value
		}
	}
	t.Fatal("no session cookie")
	return ""
}

func (e *testEnv) dial(t *testing.T, c *http.Client) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws"
	dialer := websocket.Dialer{Jar: c.Jar, HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	sid := e.sessionOf(t, c)
	require.Eventually(t, func() bool {
		for _, id := range e.s.hub.connectedSessions() {
			if id == sid {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readUntil reads messages until one of type msgType arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

type challengeResponse struct {
	Success       bool           `json:"success"`
	Challenge     challengeView  `json:"challenge"`
	Encouragement string         `json:"encouragement"`
	Milestone     *milestoneView `json:"milestone"`
}

type boardResponse struct {
	Leaderboard []leaderboard.Ranked `json:"leaderboard"`
	Position    int                  `json:"position"`
	Stats       *Stats               `json:"stats"`
}

func TestSessionCookieIsMinted(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/challenge", nil, nil))
	first := e.sessionOf(t, e.client)
	_, err := uuid.Parse(first)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/challenge", nil, nil))
	assert.Equal(t, first, e.sessionOf(t, e.client))
}

func TestHandleFootprint(t *testing.T) {
	e := newTestEnv(t)

	form := map[string]interface{}{
		"transport":      "150km",
		"transport_type": "car",
		"electricity":    300,
		"energy_source":  "renewable",
		"diet":           "vegetarian",
		"shopping":       "-20",
	}
	var got eco.Footprint
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/footprint", form, &got))

	want := eco.ComputeFootprint(eco.EmissionInput{
		TransportKm:            150,
		ElectricityKwh:         300,
		ElectricityIsRenewable: true,
		Diet:                   eco.DietVegetarian,
	})
	assert.InDelta(t, want.Total, got.Total, 1e-9)
	assert.Equal(t, want.Tier, got.Tier)
	assert.Equal(t, want.HighestImpact, got.HighestImpact)
	assert.Zero(t, got.Breakdown[eco.CategoryShopping])

	var activity struct {
		Activity []ActivityLog `json:"activity"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/activity", nil, &activity))
	require.Len(t, activity.Activity, 1)
	assert.Equal(t, "footprint_calculated", activity.Activity[0].Action)
	assert.Contains(t, activity.Activity[0].Details, "kg CO2/month")
}

func TestHandleFootprint_BadJSON(t *testing.T) {
	e := newTestEnv(t)

	req, err := http.NewRequest("POST", e.ts.URL+"/api/footprint", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleSolar_DefaultHomeSize(t *testing.T) {
	e := newTestEnv(t)

	var got eco.EnergyEstimate
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/solar", map[string]string{}, &got))

	want := eco.ComputeEnergyProduction(eco.SolarForm{}.Sanitize())
	assert.InDelta(t, want.EnergyProducedKwhPerMonth, got.EnergyProducedKwhPerMonth, 1e-9)
	assert.Len(t, got.Projection, eco.ProjectionYears)
}

func TestHandleFootprint_HugeNumbers(t *testing.T) {
	e := newTestEnv(t)

	var got eco.Footprint
	body := map[string]interface{}{"shopping": 1e308, "diet": "vegan"}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/footprint", body, &got))

	assert.InDelta(t, eco.MaxAmount*eco.ShoppingFactorPerDollar, got.Breakdown[eco.CategoryShopping], 1)
	sum := 0.0
	for _, v := range got.Breakdown {
		sum += v
	}
	assert.InDelta(t, sum, got.Total, 1)
	assert.Equal(t, eco.CategoryShopping, got.Segments[0].Category)
}

func TestHandleSolar_HugeHomeSize(t *testing.T) {
	e := newTestEnv(t)

	var got eco.EnergyEstimate
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/solar", map[string]interface{}{"home_size": 1e308}, &got))

	want := eco.ComputeEnergyProduction(eco.SolarForm{HomeSize: eco.MaxAmount}.Sanitize())
	assert.InDelta(t, want.PanelAreaM2, got.PanelAreaM2, 1)
	assert.Len(t, got.Projection, eco.ProjectionYears)
	assert.Equal(t, 100.0, got.ProgressPercent)
}

func TestHandleRecipeSearch(t *testing.T) {
	e := newTestEnv(t)
	first := e.s.recipes[0]

	var found struct {
		Results    []recipeResult  `json:"results"`
		Suggestion *recipes.Recipe `json:"suggestion"`
	}
	body := map[string]string{"ingredients": strings.ToUpper(first.Ingredients[0])}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/recipes/search", body, &found))
	require.NotEmpty(t, found.Results)
	assert.Nil(t, found.Suggestion)
	for _, r := range found.Results {
		assert.GreaterOrEqual(t, r.Matches, 1)
		assert.Len(t, r.Highlighted, len(r.Ingredients))
	}

	var empty struct {
		Results    []recipeResult  `json:"results"`
		Suggestion *recipes.Recipe `json:"suggestion"`
	}
	body = map[string]string{"ingredients": "unobtainium"}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/recipes/search", body, &empty))
	assert.Empty(t, empty.Results)
	require.NotNil(t, empty.Suggestion)
	_, ok := recipes.Find(e.s.recipes, empty.Suggestion.ID)
	assert.True(t, ok)
}

func TestHandleSaveRecipe(t *testing.T) {
	e := newTestEnv(t)
	id := e.s.recipes[0].ID

	var saved struct {
		Saved   bool     `json:"saved"`
		Recipes []string `json:"recipes"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/recipes/"+id+"/save", nil, &saved))
	assert.True(t, saved.Saved)

	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/recipes/"+id+"/save", nil, &saved))
	assert.False(t, saved.Saved)
	assert.Equal(t, []string{id}, saved.Recipes)

	var list struct {
		Recipes []recipes.Recipe `json:"recipes"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/recipes/saved", nil, &list))
	require.Len(t, list.Recipes, 1)
	assert.Equal(t, id, list.Recipes[0].ID)

	assert.Equal(t, http.StatusNotFound, e.call(t, e.client, "POST", "/api/recipes/nope/save", nil, nil))
}

func TestHandleEvents(t *testing.T) {
	e := newTestEnv(t)

	var all struct {
		Events []eventView `json:"events"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/events", nil, &all))
	assert.Len(t, all.Events, len(e.s.events))

	wantType := e.s.events[0].Type
	var filtered struct {
		Events []eventView `json:"events"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/events?type="+url.QueryEscape(wantType), nil, &filtered))
	require.NotEmpty(t, filtered.Events)
	for _, ev := range filtered.Events {
		assert.Equal(t, wantType, ev.Type)
	}

	var none struct {
		Events []eventView `json:"events"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/events?location=atlantis", nil, &none))
	assert.Empty(t, none.Events)
}

func TestHandleListChallenges(t *testing.T) {
	e := newTestEnv(t)

	var got struct {
		Challenges []struct {
			Program challenge.Program `json:"program"`
			Title   string            `json:"title"`
		} `json:"challenges"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/challenges", nil, &got))
	require.Len(t, got.Challenges, len(challenge.Programs))
	for _, c := range got.Challenges {
		assert.NotEmpty(t, c.Title)
	}
}

func TestChallengeFlow(t *testing.T) {
	e := newTestEnv(t)

	var view challengeView
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/challenge", nil, &view))
	assert.Equal(t, challenge.NotStarted, view.Status)
	assert.Equal(t, challenge.DefaultDescription, view.Description)

	assert.Equal(t, http.StatusConflict, e.call(t, e.client, "POST", "/api/challenge/complete", nil, nil))
	assert.Equal(t, http.StatusBadRequest,
		e.call(t, e.client, "POST", "/api/challenge/start", map[string]string{"program": "marathon"}, nil))

	var started challengeResponse
	require.Equal(t, http.StatusOK,
		e.call(t, e.client, "POST", "/api/challenge/start", map[string]string{"program": string(challenge.MeatFree)}, &started))
	assert.Equal(t, 1, started.Challenge.Day)
	assert.Equal(t, challenge.InProgress, started.Challenge.Status)
	require.NotNil(t, started.Challenge.Today)

	var joined struct {
		Joined bool              `json:"joined"`
		Entry  leaderboard.Entry `json:"entry"`
	}
	require.Equal(t, http.StatusOK,
		e.call(t, e.client, "POST", "/api/leaderboard/join", map[string]string{"name": "Tester"}, &joined))
	require.True(t, joined.Joined)
	assert.Equal(t, challenge.PointsPerDay, joined.Entry.Score)

	var last challengeResponse
	for day := 2; day <= 7; day++ {
		last = challengeResponse{}
		require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/challenge/complete", nil, &last))
		assert.Equal(t, day, last.Challenge.Day)
		assert.NotEmpty(t, last.Encouragement)
		if day < 7 {
			assert.Nil(t, last.Milestone)
		}
	}
	require.NotNil(t, last.Milestone)
	assert.Equal(t, challenge.MilestoneOneWeek, last.Milestone.Milestone)
	assert.Equal(t, "Tester", last.Milestone.Name)

	var board boardResponse
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/leaderboard", nil, &board))
	require.NotZero(t, board.Position)
	me := board.Leaderboard[board.Position-1]
	assert.Equal(t, "Tester", me.Name)
	assert.Equal(t, 7*challenge.PointsPerDay, me.Score)
	assert.True(t, me.IsCurrentUser)

	require.NotNil(t, board.Stats)
	assert.Equal(t, 1, board.Stats.ActiveChallenges)
	assert.Equal(t, 6, board.Stats.DaysLogged)
}

func TestJoinLeaderboard_CancelledPrompt(t *testing.T) {
	e := newTestEnv(t)

	var got struct {
		Joined bool `json:"joined"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/leaderboard/join", map[string]string{"name": "  "}, &got))
	assert.False(t, got.Joined)

	var board boardResponse
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/leaderboard", nil, &board))
	assert.Len(t, board.Leaderboard, len(leaderboard.Seed()))
	assert.Zero(t, board.Position)
}

func TestJoinLeaderboard_RenameAndTruncate(t *testing.T) {
	e := newTestEnv(t)

	join := func(name string) {
		require.Equal(t, http.StatusOK,
			e.call(t, e.client, "POST", "/api/leaderboard/join", map[string]string{"name": name}, nil))
	}
	join("Alice")
	join("AVeryLongNicknameIndeed")

	var board boardResponse
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/leaderboard", nil, &board))
	names := make([]string, 0, len(board.Leaderboard))
	for _, r := range board.Leaderboard {
		names = append(names, r.Name)
	}
	assert.NotContains(t, names, "Alice")
	assert.Contains(t, names, "AVeryLongNickna...")

	// An empty name rejoins under the saved nickname.
	var again struct {
		Joined bool              `json:"joined"`
		Entry  leaderboard.Entry `json:"entry"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/leaderboard/join", nil, &again))
	assert.True(t, again.Joined)
	assert.Equal(t, "AVeryLongNickna...", again.Entry.Name)
}

func TestLeaderboard_LocalUserIsSynthesisedAndStored(t *testing.T) {
	e := newTestEnv(t)
	e.call(t, e.client, "GET", "/api/challenge", nil, nil)
	sid := e.sessionOf(t, e.client)

	// A nickname without a board entry, as left behind by an admin removal.
	started, err := challenge.Start(challenge.TreePlant)
	require.NoError(t, err)
	require.NoError(t, e.s.saveSession(e.ctx, sid, SessionState{Challenge: started, Nickname: "Ghost"}))

	var board boardResponse
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/leaderboard", nil, &board))
	require.NotZero(t, board.Position)
	me := board.Leaderboard[board.Position-1]
	assert.Equal(t, leaderboard.DefaultAvatar, me.Avatar)
	assert.True(t, me.IsCurrentUser)

	// The refreshed board is stored, so other visitors see the entry too.
	stored, err := e.s.loadLeaderboard(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, board.Position, leaderboard.Position(stored, "Ghost"))

	var other boardResponse
	require.Equal(t, http.StatusOK, e.call(t, e.newVisitor(t), "GET", "/api/leaderboard", nil, &other))
	require.Len(t, other.Leaderboard, len(leaderboard.Seed())+1)
	assert.Equal(t, "Ghost", other.Leaderboard[board.Position-1].Name)
	assert.False(t, other.Leaderboard[board.Position-1].IsCurrentUser)

	// Refreshing again changes nothing.
	var again boardResponse
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/leaderboard", nil, &again))
	assert.Equal(t, board.Leaderboard, again.Leaderboard)
}

func TestTips(t *testing.T) {
	e := newTestEnv(t)

	var feed struct {
		Tips []tips.Tip `json:"tips"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/tips", nil, &feed))
	assert.Len(t, feed.Tips, tips.InitialFeed)

	var again struct {
		Tips []tips.Tip `json:"tips"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/tips", nil, &again))
	assert.Equal(t, feed.Tips, again.Tips)

	for i := 0; i < 4; i++ {
		var next struct {
			Tip  tips.Tip   `json:"tip"`
			Tips []tips.Tip `json:"tips"`
		}
		require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/tips/next", nil, &next))
		assert.Equal(t, next.Tip, next.Tips[0])
		assert.LessOrEqual(t, len(next.Tips), tips.MaxFeed)
	}

	title := e.s.tips[0].Title
	var saved struct {
		Saved bool       `json:"saved"`
		Tips  []tips.Tip `json:"tips"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/tips/save", map[string]string{"title": title}, &saved))
	assert.True(t, saved.Saved)
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/tips/save", map[string]string{"title": title}, &saved))
	assert.False(t, saved.Saved)
	assert.Len(t, saved.Tips, 1)

	assert.Equal(t, http.StatusNotFound,
		e.call(t, e.client, "POST", "/api/tips/save", map[string]string{"title": "no such tip"}, nil))

	var list struct {
		Tips []tips.Tip `json:"tips"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/tips/saved", nil, &list))
	require.Len(t, list.Tips, 1)
	assert.Equal(t, title, list.Tips[0].Title)
}

func TestHandleClimate_Fallback(t *testing.T) {
	e := newTestEnv(t)

	var got climate.Reading
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/climate", nil, &got))
	assert.Equal(t, climate.SourceFallback, got.Source)
	assert.InDelta(t, climate.FallbackCO2, got.CO2PPM, climate.FallbackCO2Spread)
	assert.InDelta(t, climate.FallbackTemp, got.TempAnomaly, climate.FallbackTempSpread)

	var cached climate.Reading
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/climate", nil, &cached))
	assert.Equal(t, got.CO2PPM, cached.CO2PPM)
}

func TestAdmin(t *testing.T) {
	e := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, e.call(t, e.client, "POST", "/api/admin/leaderboard/reset", nil, nil))

	bad := map[string]string{"email": testAdminEmail, "password": "wrong"}
	assert.Equal(t, http.StatusUnauthorized, e.call(t, e.client, "POST", "/api/login", bad, nil))

	good := map[string]string{"email": testAdminEmail, "password": testAdminPassword}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/login", good, nil))

	var status struct {
		Authenticated bool `json:"authenticated"`
		User          User `json:"user"`
	}
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/auth/status", nil, &status))
	assert.True(t, status.Authenticated)
	assert.Equal(t, testAdminEmail, status.User.Email)

	assert.Equal(t, http.StatusNotFound, e.call(t, e.client, "DELETE", "/api/admin/leaderboard/Nobody", nil, nil))

	var removed boardResponse
	require.Equal(t, http.StatusOK, e.call(t, e.client, "DELETE", "/api/admin/leaderboard/GreenGuru", nil, &removed))
	assert.Len(t, removed.Leaderboard, len(leaderboard.Seed())-1)

	var reset boardResponse
	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/admin/leaderboard/reset", nil, &reset))
	assert.Len(t, reset.Leaderboard, len(leaderboard.Seed()))

	require.Equal(t, http.StatusOK, e.call(t, e.client, "POST", "/api/logout", nil, nil))
	status.Authenticated = true
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/auth/status", nil, &status))
	assert.False(t, status.Authenticated)
}

func TestAdmin_ForgedToken(t *testing.T) {
	e := newTestEnv(t)

	forger := &Server{cfg: Config{AuthSecret: "other-secret"}, now: time.Now}
	token, err := forger.issueToken(User{ID: 1, Role: "admin"})
	require.NoError(t, err)

	u, err := url.Parse(e.ts.URL)
	require.NoError(t, err)
	e.client.Jar.SetCookies(u, []*http.Cookie{{Name: authCookie, Value: token, Path: "/"}})

	assert.Equal(t, http.StatusUnauthorized, e.call(t, e.client, "POST", "/api/admin/leaderboard/reset", nil, nil))
}

func TestHandleStats(t *testing.T) {
	e := newTestEnv(t)

	var stats Stats
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/stats", nil, &stats))
	seed := leaderboard.Seed()
	assert.Equal(t, len(seed), stats.Participants)
	assert.Equal(t, seed[0].Name, stats.Leader)
	assert.Zero(t, stats.ActiveChallenges)
}

func TestWebSocket_LeaderboardBroadcast(t *testing.T) {
	e := newTestEnv(t)
	watcher := e.newVisitor(t)
	e.call(t, watcher, "GET", "/api/challenge", nil, nil)
	conn := e.dial(t, watcher)

	require.Equal(t, http.StatusOK,
		e.call(t, e.client, "POST", "/api/leaderboard/join", map[string]string{"name": "Broadcaster"}, nil))

	msg := readUntil(t, conn, "leaderboard-update")
	var payload struct {
		Leaderboard []leaderboard.Ranked `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	names := make([]string, 0, len(payload.Leaderboard))
	for _, r := range payload.Leaderboard {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "Broadcaster")
}

func TestRotateTipsJob(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, http.StatusOK, e.call(t, e.client, "GET", "/api/tips", nil, nil))
	conn := e.dial(t, e.client)

	e.s.rotateTipsJob(e.ctx)

	msg := readUntil(t, conn, "tip")
	var tip tips.Tip
	require.NoError(t, json.Unmarshal(msg.Data, &tip))

	st, err := e.s.loadSession(e.ctx, e.sessionOf(t, e.client))
	require.NoError(t, err)
	require.Len(t, st.TipFeed, tips.InitialFeed+1)
	assert.Equal(t, tip, st.TipFeed[0])
}

func TestReminderJob(t *testing.T) {
	e := newTestEnv(t)
	e.call(t, e.client, "GET", "/api/challenge", nil, nil)
	sid := e.sessionOf(t, e.client)

	started, err := challenge.Start(challenge.ZeroWaste)
	require.NoError(t, err)
	yesterday := time.Now().Add(-24 * time.Hour)
	require.NoError(t, e.s.saveSession(e.ctx, sid, SessionState{Challenge: started, LastCompletion: utcPtr(yesterday)}))

	conn := e.dial(t, e.client)
	e.s.reminderJob(e.ctx)

	msg := readUntil(t, conn, "reminder")
	var payload struct {
		Program string `json:"program"`
		Day     int    `json:"day"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, challenge.ZeroWaste.Title(), payload.Program)
	assert.Equal(t, 1, payload.Day)
}
