package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"ecohub/internal/climate"
	"ecohub/internal/events"
	"ecohub/internal/logging"
	"ecohub/internal/recipes"
	"ecohub/internal/tips"
)

type Server struct {
	db       *sql.DB
	router   *mux.Router
	hub      *Hub
	upgrader websocket.Upgrader
	cfg      Config
	climate  *climate.Client

	recipes []recipes.Recipe
	events  []events.Event
	tips    []tips.Tip

	// mu serialises read-modify-write cycles on stored records and guards rnd.
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time

	readingMu sync.RWMutex
	reading   *climate.Reading
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	sessions   chan chan []string
	done       chan struct{}
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

type directMessage struct {
	sessionID string
	data      []byte
}

// NewServer opens the store, loads the catalogs and starts the hub. The hub
// stops when ctx is done.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	db, err := initDB(cfg.DBPath, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	recipeCatalog, err := recipes.LoadCatalog()
	if err != nil {
		db.Close()
		return nil, err
	}
	eventCatalog, err := events.LoadCatalog()
	if err != nil {
		db.Close()
		return nil, err
	}
	tipCatalog, err := tips.LoadCatalog()
	if err != nil {
		db.Close()
		return nil, err
	}

	seed := time.Now().UnixNano()
	s := &Server{
		db:     db,
		router: mux.NewRouter(),
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		cfg:     cfg,
		climate: climate.NewClient(cfg.Climate, logging.Log, rand.New(rand.NewSource(seed+1))),
		recipes: recipeCatalog,
		events:  eventCatalog,
		tips:    tipCatalog,
		rnd:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
	}

	s.setupRoutes()
	go s.hub.run(ctx)

	return s, nil
}

func (s *Server) Close() error {
	return s.db.Close()
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		direct:     make(chan directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sessions:   make(chan chan []string),
		done:       make(chan struct{}),
	}
}

func (h *Hub) run(ctx context.Context) {
	defer func() {
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			logging.Log.WithField("session", client.sessionID).Debug("Client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				logging.Log.WithField("session", client.sessionID).Debug("Client disconnected")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, message)
			}

		case msg := <-h.direct:
			for client := range h.clients {
				if client.sessionID == msg.sessionID {
					h.deliver(client, msg.data)
				}
			}

		case reply := <-h.sessions:
			seen := make(map[string]bool)
			var ids []string
			for client := range h.clients {
				if !seen[client.sessionID] {
					seen[client.sessionID] = true
					ids = append(ids, client.sessionID)
				}
			}
			reply <- ids
		}
	}
}

// deliver drops clients whose send buffer is full.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		close(client.send)
		delete(h.clients, client)
	}
}

// connectedSessions lists the sessions with at least one open socket.
func (h *Hub) connectedSessions() []string {
	reply := make(chan []string, 1)
	select {
	case h.sessions <- reply:
		return <-reply
	case <-h.done:
		return nil
	}
}

func (h *Hub) publish(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func (h *Hub) publishTo(sessionID string, message []byte) {
	select {
	case h.direct <- directMessage{sessionID: sessionID, data: message}:
	case <-h.done:
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(loggingMiddleware, s.sessionMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/footprint", s.handleFootprint).Methods("POST")
	api.HandleFunc("/solar", s.handleSolar).Methods("POST")

	api.HandleFunc("/recipes/search", s.handleRecipeSearch).Methods("POST")
	api.HandleFunc("/recipes/saved", s.handleSavedRecipes).Methods("GET")
	api.HandleFunc("/recipes/{id}/save", s.handleSaveRecipe).Methods("POST")

	api.HandleFunc("/events", s.handleEvents).Methods("GET")

	api.HandleFunc("/challenges", s.handleListChallenges).Methods("GET")
	api.HandleFunc("/challenge", s.handleGetChallenge).Methods("GET")
	api.HandleFunc("/challenge/start", s.handleStartChallenge).Methods("POST")
	api.HandleFunc("/challenge/complete", s.handleCompleteDay).Methods("POST")

	api.HandleFunc("/leaderboard", s.handleGetLeaderboard).Methods("GET")
	api.HandleFunc("/leaderboard/join", s.handleJoinLeaderboard).Methods("POST")

	api.HandleFunc("/tips", s.handleGetTips).Methods("GET")
	api.HandleFunc("/tips/next", s.handleNextTip).Methods("POST")
	api.HandleFunc("/tips/save", s.handleSaveTip).Methods("POST")
	api.HandleFunc("/tips/saved", s.handleSavedTips).Methods("GET")

	api.HandleFunc("/climate", s.handleClimate).Methods("GET")
	api.HandleFunc("/activity", s.handleActivity).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	api.HandleFunc("/auth/status", s.handleAuthStatus).Methods("GET")
	api.HandleFunc("/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/logout", s.handleLogout).Methods("POST")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/leaderboard/reset", s.handleResetLeaderboard).Methods("POST")
	admin.HandleFunc("/leaderboard/{name}", s.handleRemoveEntry).Methods("DELETE")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Log.WithError(err).Warn("WebSocket upgrade error")
		return
	}

	client := &Client{
		hub:       s.hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID(r.Context()),
	}

	select {
	case client.hub.register <- client:
	case <-client.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Log.WithError(err).Warn("WebSocket error")
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encodeUpdate(updateType string, data interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"type": updateType,
		"data": data,
	})
}

func (s *Server) broadcastUpdate(updateType string, data interface{}) {
	jsonData, err := encodeUpdate(updateType, data)
	if err != nil {
		logging.Log.WithError(err).Error("Error marshaling broadcast data")
		return
	}

	s.hub.publish(jsonData)
}

func (s *Server) sendToSession(id, updateType string, data interface{}) {
	jsonData, err := encodeUpdate(updateType, data)
	if err != nil {
		logging.Log.WithError(err).Error("Error marshaling session message")
		return
	}

	s.hub.publishTo(id, jsonData)
}

func main() {
	Execute()
}
