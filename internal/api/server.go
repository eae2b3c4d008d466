// Package api exposes the extraction and rule-management surface over
// HTTP. It is an admin/service interface, not a public API: no auth, CORS
// open, intended to sit behind the operator's own ingress.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/nightgrid/captiond/internal/model"
	"github.com/nightgrid/captiond/internal/rules"
)

// Extractor produces the consensus result for one post.
type Extractor interface {
	Extract(ctx context.Context, post model.Post) (*model.MergedResult, error)
}

// Server routes extraction and rule administration requests.
type Server struct {
	router *chi.Mux
	engine Extractor
	store  rules.Store
	port   int
}

// NewServer builds the router. engine may be nil when the server is used
// for rule administration only; POST /api/v1/extract then returns 503.
func NewServer(port int, engine Extractor, store rules.Store) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s := &Server{
		router: router,
		engine: engine,
		store:  store,
		port:   port,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/extract", s.extract)

		r.Get("/rules", s.listRules)
		r.Post("/rules", s.createRule)
		r.Post("/rules/{id}/approve", s.approveRule)
		r.Post("/rules/{id}/deactivate", s.deactivateRule)

		r.Get("/suggestions", s.listSuggestions)
		r.Post("/suggestions/{id}/approve", s.approveSuggestion)
		r.Post("/suggestions/{id}/reject", s.rejectSuggestion)
	})

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("api: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("api: listening", zap.Int("port", s.port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type extractRequest struct {
	PostID       string `json:"post_id"`
	Caption      string `json:"caption"`
	LocationHint string `json:"location_hint"`
	PostedAt     string `json:"posted_at"`
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "extraction engine not configured")
		return
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Caption == "" {
		writeError(w, http.StatusBadRequest, "caption is required")
		return
	}

	postedAt := time.Now().UTC()
	if req.PostedAt != "" {
		t, err := time.Parse(time.RFC3339, req.PostedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "posted_at must be RFC3339")
			return
		}
		postedAt = t
	}

	post := model.Post{
		ID:           req.PostID,
		Caption:      req.Caption,
		LocationHint: req.LocationHint,
		PostedAt:     postedAt,
	}

	merged, err := s.engine.Extract(r.Context(), post)
	if err != nil {
		zap.L().Error("api: extract failed", zap.String("post_id", post.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "extraction failed")
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	filter := rules.RuleFilter{
		Category:        r.URL.Query().Get("category"),
		IncludeInactive: r.URL.Query().Get("include_inactive") == "true",
	}
	list, err := s.store.ListRules(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list rules failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list rules failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": list, "count": len(list)})
}

type createRuleRequest struct {
	Category    string `json:"category"`
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := rules.CreateManualRule(r.Context(), s.store, req.Category, req.Pattern, req.Description, req.Priority)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) approveRule(w http.ResponseWriter, r *http.Request) {
	rule, err := rules.ApproveRule(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) deactivateRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := rules.DeactivateRule(r.Context(), s.store, id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deactivated"})
}

func (s *Server) listSuggestions(w http.ResponseWriter, r *http.Request) {
	status := model.SuggestionStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.SuggestionPending
	}
	list, err := s.store.ListSuggestions(r.Context(), status, 100)
	if err != nil {
		zap.L().Error("api: list suggestions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list suggestions failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": list, "count": len(list)})
}

type approveSuggestionRequest struct {
	Pattern  string `json:"pattern"`
	Priority int    `json:"priority"`
}

func (s *Server) approveSuggestion(w http.ResponseWriter, r *http.Request) {
	var req approveSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Pattern == "" {
		writeError(w, http.StatusBadRequest, "pattern is required")
		return
	}

	rule, err := rules.ApproveSuggestion(r.Context(), s.store, chi.URLParam(r, "id"), req.Pattern, req.Priority)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) rejectSuggestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := rules.RejectSuggestion(r.Context(), s.store, id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "rejected"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
