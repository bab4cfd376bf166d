package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"ecohub/internal/leaderboard"
	"ecohub/internal/logging"
)

const (
	authCookie = "ecohub_admin"
	authTTL    = 24 * time.Hour
)

type userCtxKey struct{}

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(u User) (string, error) {
	now := s.now()
	claims := adminClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(authTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.AuthSecret))
}

func (s *Server) parseToken(token string) (*adminClaims, error) {
	claims := &adminClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AuthSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// currentUser resolves the admin behind the request, if any.
func (s *Server) currentUser(r *http.Request) (User, bool) {
	cookie, err := r.Cookie(authCookie)
	if err != nil {
		return User{}, false
	}

	claims, err := s.parseToken(cookie.Value)
	if err != nil {
		logging.Log.WithError(err).Debug("Rejected admin token")
		return User{}, false
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return User{}, false
	}

	u, err := s.findUserByID(r.Context(), id)
	if err != nil {
		return User{}, false
	}
	return u, true
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.currentUser(r)
		if !ok || u.Role != "admin" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u)))
	})
}

func adminFrom(ctx context.Context) User {
	u, _ := ctx.Value(userCtxKey{}).(User)
	return u
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	user, err := s.findUserByEmail(r.Context(), credentials.Email)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(credentials.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		serverError(w, "Failed to create session", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(authTTL.Seconds()),
	})

	logging.Log.WithField("email", user.Email).Info("Admin logged in")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(r)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user":          u,
	})
}

func (s *Server) handleResetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	board := leaderboard.Seed()
	if err := s.saveLeaderboard(ctx, board); err != nil {
		serverError(w, "Failed to reset leaderboard", err)
		return
	}

	logging.Log.WithField("admin", adminFrom(ctx).Email).Info("Leaderboard reset")
	s.broadcastLeaderboardUpdate(board)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"leaderboard": leaderboard.Rank(board, ""),
	})
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.loadLeaderboard(ctx)
	if err != nil {
		serverError(w, "Failed to get leaderboard", err)
		return
	}

	if leaderboard.Position(board, name) == 0 {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return
	}

	board = leaderboard.Remove(board, name)
	if err := s.saveLeaderboard(ctx, board); err != nil {
		serverError(w, "Failed to remove entry", err)
		return
	}

	logging.Log.WithField("admin", adminFrom(ctx).Email).WithField("name", name).Info("Leaderboard entry removed")
	s.broadcastLeaderboardUpdate(board)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"leaderboard": leaderboard.Rank(board, ""),
	})
}
