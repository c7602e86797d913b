// Package api exposes the engine's outputs over HTTP as JSON, so an
// external presentation layer can consume conversation listings, ranked
// search, turn groupings, and branch structure.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/search"
	"github.com/tapestry-tools/tapestry/internal/turns"
)

type Server struct {
	router  *chi.Mux
	engine  *search.Engine
	log     *zap.Logger
	turnGap time.Duration
}

// NewServer builds the HTTP server over an engine. gap is the turn-split
// threshold applied when a request does not override it.
func NewServer(engine *search.Engine, log *zap.Logger, gap time.Duration) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if gap <= 0 {
		gap = turns.DefaultGap
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		engine:  engine,
		log:     log,
		turnGap: gap,
	}
	router.Use(s.requestLogger)

	router.Get("/health", s.health)
	router.Get("/api/v1/conversations", s.conversations)
	router.Get("/api/v1/conversations/{convID}/turns", s.conversationTurns)
	router.Get("/api/v1/conversations/{convID}/branches", s.conversationBranches)
	router.Get("/api/v1/search", s.search)

	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving on addr.
func (s *Server) Start(addr string) error {
	s.log.Info("api server starting", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) conversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.engine.Conversations()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": summaries,
		"total":         len(summaries),
	})
}

func (s *Server) conversationTurns(w http.ResponseWriter, r *http.Request) {
	convID := chi.URLParam(r, "convID")
	target := r.URL.Query().Get("branch")

	gap := s.turnGap
	if raw := r.URL.Query().Get("gap_minutes"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			gap = time.Duration(minutes) * time.Minute
		}
	}

	turnList, err := s.engine.Turns(convID, target, gap)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversationId": convID,
		"turns":          turnList,
		"total":          len(turnList),
	})
}

func (s *Server) conversationBranches(w http.ResponseWriter, r *http.Request) {
	convID := chi.URLParam(r, "convID")

	_, nav, err := s.engine.Conversation(convID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	stats := nav.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"conversationId": convID,
		"hasTree":        nav.HasTree(),
		"branchPoints":   nav.BranchPoints(),
		"maxDepth":       stats.MaxDepth,
		"roots":          stats.Roots,
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	facets := models.SearchFacets{
		Query:     q.Get("q"),
		Vendor:    models.Vendor(q.Get("vendor")),
		Role:      models.Role(q.Get("role")),
		SourceIDs: q["source"],
		Regex:     q.Get("regex") == "true",
		TitleBody: q.Get("title_body") == "true",
	}

	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from date, want YYYY-MM-DD"})
			return
		}
		facets.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to date, want YYYY-MM-DD"})
			return
		}
		facets.To = &to
	}

	result, err := s.engine.Search(facets)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages":            result.Messages,
		"total":               result.Total,
		"ranked":              result.Ranked,
		"sourceFilterRelaxed": result.SourceFilterRelaxed,
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
