// Package api provides the HTTP gateway for coindeck.
//
// It exposes the market-data proxy, the question-answering proxy, the
// per-session dashboard routes, and WebSocket streaming.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/coindeck/internal/cache"
	"github.com/seenimoa/coindeck/internal/config"
	"github.com/seenimoa/coindeck/internal/dashboard"
	"github.com/seenimoa/coindeck/internal/infra"
	"github.com/seenimoa/coindeck/internal/insight"
	"github.com/seenimoa/coindeck/internal/market"
	"github.com/seenimoa/coindeck/pkg/models"
	"github.com/seenimoa/coindeck/pkg/utils"
)

// defaultSession is used when a client sends no X-Session-ID header;
// single-user deployments never need to mint ids.
const defaultSession = "default"

// maxRequestBody caps how much of a request body is read.
const maxRequestBody = 1 << 20 // 1 MiB

// Server is the HTTP gateway server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	log      *zap.Logger
	cache    cache.Cache
	market   *market.Client
	insight  *insight.Client
	sessions *dashboard.Sessions
	wsHub    *WSHub
}

// NewServer creates a configured gateway server with all routes and
// middleware.
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	var ca cache.Cache
	switch cfg.Cache.Backend {
	case "", "memory":
		ca = cache.NewMemory()
	case "redis":
		ca = cache.NewRedis(cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", cfg.Cache.Backend)
	}

	srv := &Server{
		cfg:      cfg,
		log:      log,
		cache:    ca,
		market:   market.New(cfg.Market, ca, log),
		insight:  insight.New(cfg.Insight, ca, log),
		sessions: dashboard.NewSessions(time.Duration(cfg.API.SessionTTLSec) * time.Second),
		wsHub:    NewWSHub(),
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Info("api server listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-done
	s.log.Info("shutting down server")

	s.sessions.Close()
	if err := s.cache.Close(); err != nil {
		s.log.Warn("cache close failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Session-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks
	r.Get("/health", s.handleHealth)
	r.Get("/health/deps", s.handleHealthDeps)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Market data proxy (raw provider shape) and canonical list
		r.Get("/markets", s.handleMarkets)
		r.Get("/coins", s.handleCoins)
		r.Get("/coins/{id}", s.handleCoin)
		r.Get("/coins/{id}/sparkline", s.handleSparkline)

		// Question answering
		r.Post("/ask", s.handleAsk)
		r.Post("/sentiment", s.handleSentiment)

		// Dashboard
		r.Get("/dashboard", s.handleDashboard)
		r.Post("/dashboard/entries", s.handleDashboardAdd)
		r.Delete("/dashboard/entries/{id}", s.handleDashboardRemove)
		r.Post("/dashboard/refresh", s.handleDashboardRefresh)

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// ============================================================
// Response types
// ============================================================

// ErrorResponse is the error payload shape for every route.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DashboardResponse is the snapshot of one session's dashboard.
type DashboardResponse struct {
	Available []models.MarketEntry `json:"available"`
	Selected  []models.MarketEntry `json:"selected"`
}

// DepsResponse reports reachability of the gateway's dependencies.
type DepsResponse struct {
	Status string            `json:"status"`
	Deps   map[string]string `json:"deps"`
}

// ============================================================
// Health handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHealthDeps pings the market provider, the insight backend and
// the cache concurrently.
func (s *Server) handleHealthDeps(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	type check struct {
		name string
		ping func(context.Context) error
	}
	checks := []check{
		{"market", s.market.Ping},
		{"insight", s.insight.Ping},
		{"cache", s.cache.Ping},
	}

	results := make([]string, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			if err := c.ping(gctx); err != nil {
				results[i] = err.Error()
			} else {
				results[i] = "ok"
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := DepsResponse{Status: "ok", Deps: make(map[string]string, len(checks))}
	status := http.StatusOK
	for i, c := range checks {
		resp.Deps[c.name] = results[i]
		if results[i] != "ok" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

// ============================================================
// Market data handlers
// ============================================================

// handleMarkets is the market-data proxy. On success the provider's
// JSON body is written through unchanged.
func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	body, err := s.market.Markets(r.Context())
	if err != nil {
		s.writeUpstreamError(w, err, "unable to fetch market data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck
}

// handleCoins returns the market snapshot in the canonical shape.
func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	entries, err := s.market.Entries(r.Context())
	if err != nil {
		s.writeUpstreamError(w, err, "unable to fetch market data")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCoin returns one coin in the canonical shape.
func (s *Server) handleCoin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.market.Coin(r.Context(), id)
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			writeError(w, http.StatusNotFound, "coin not found")
			return
		}
		s.writeUpstreamError(w, err, "unable to fetch market data")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// SparklineResponse is the normalized 7-day trend for one coin,
// scaled to [0, 1] for a fixed-height chart.
type SparklineResponse struct {
	ID     string    `json:"id"`
	Points []float64 `json:"points"`
}

func (s *Server) handleSparkline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.market.Coin(r.Context(), id)
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			writeError(w, http.StatusNotFound, "coin not found")
			return
		}
		s.writeUpstreamError(w, err, "unable to fetch market data")
		return
	}

	points := utils.NormalizeSparkline(entry.Sparkline7d)
	if points == nil {
		points = []float64{}
	}
	writeJSON(w, http.StatusOK, SparklineResponse{ID: entry.ID, Points: points})
}

// ============================================================
// Question answering handlers
// ============================================================

// handleAsk is the question-answering proxy. The request body is
// forwarded verbatim; the backend's answer is relayed unchanged.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	body, q, ok := s.readQuestion(w, r)
	if !ok {
		return
	}

	resp, status, err := s.insight.Ask(r.Context(), q.Question, body)
	if err != nil {
		// Degraded mode: answer from cached market data instead.
		if ans, ok := s.localAnswer(r.Context(), q.Question); ok {
			s.log.Warn("insight backend down, serving local answer", zap.Error(err))
			writeJSON(w, http.StatusOK, ans)
			return
		}
		s.log.Error("insight relay failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "unable to process question")
		return
	}
	s.relayInsight(w, resp, status)
}

// handleSentiment relays a sentiment-only request to the backend.
func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	body, _, ok := s.readQuestion(w, r)
	if !ok {
		return
	}

	resp, status, err := s.insight.Sentiment(r.Context(), body)
	if err != nil {
		s.log.Error("sentiment relay failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "unable to analyze sentiment")
		return
	}
	s.relayInsight(w, resp, status)
}

// readQuestion reads and validates a question body. On failure it has
// already written the error response.
func (s *Server) readQuestion(w http.ResponseWriter, r *http.Request) ([]byte, models.Question, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read request body")
		return nil, models.Question{}, false
	}

	var q models.Question
	if err := json.Unmarshal(body, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, models.Question{}, false
	}
	if q.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return nil, models.Question{}, false
	}
	return body, q, true
}

// relayInsight writes the backend's response. Success bodies pass
// through unchanged; error statuses are propagated with a generic
// message so backend error internals never reach the browser.
func (s *Server) relayInsight(w http.ResponseWriter, resp []byte, status int) {
	if status >= 200 && status < 300 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(resp) //nolint:errcheck
		return
	}
	s.log.Warn("insight backend error", zap.Int("status", status), zap.ByteString("body", resp))
	writeError(w, status, "insight backend request failed")
}

// ============================================================
// Dashboard handlers
// ============================================================

// sessionStore resolves the caller's dashboard store from the
// X-Session-ID header.
func (s *Server) sessionStore(r *http.Request) *dashboard.Store {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		id = defaultSession
	}
	return s.sessions.Get(id)
}

// seed populates available from the market snapshot when the store is
// still empty. Populated stores are left alone; refresh is explicit.
func (s *Server) seed(ctx context.Context, store *dashboard.Store) error {
	if !store.Empty() {
		return nil
	}
	entries, err := s.market.Entries(ctx)
	if err != nil {
		return err
	}
	store.SetAvailable(entries)
	return nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	store := s.sessionStore(r)
	if err := s.seed(r.Context(), store); err != nil {
		s.writeUpstreamError(w, err, "unable to fetch market data")
		return
	}
	writeSnapshot(w, store)
}

// AddEntryRequest is the body for POST /api/v1/dashboard/entries.
// Either a full entry or just an id of an available entry.
type AddEntryRequest struct {
	models.MarketEntry
}

func (s *Server) handleDashboardAdd(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	store := s.sessionStore(r)
	if err := s.seed(r.Context(), store); err != nil {
		s.writeUpstreamError(w, err, "unable to fetch market data")
		return
	}

	entry := req.MarketEntry
	// An id-only body adopts the full entry from the available list.
	if entry.Name == "" && entry.Symbol == "" {
		available, _ := store.Snapshot()
		for _, e := range available {
			if e.ID == entry.ID {
				entry = e
				break
			}
		}
	}

	store.Add(entry)
	s.wsHub.Broadcast(WSMessage{
		Type: "dashboard_updated",
		Data: map[string]any{"action": "add", "id": entry.ID},
	})
	writeSnapshot(w, store)
}

func (s *Server) handleDashboardRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	store := s.sessionStore(r)
	if store.Remove(id) {
		s.wsHub.Broadcast(WSMessage{
			Type: "dashboard_updated",
			Data: map[string]any{"action": "remove", "id": id},
		})
	}
	// Removing an absent id is a no-op, not an error.
	writeSnapshot(w, store)
}

// handleDashboardRefresh forces a re-seed of the available list from
// the provider, keeping the user's selected entries.
func (s *Server) handleDashboardRefresh(w http.ResponseWriter, r *http.Request) {
	entries, err := s.market.Entries(r.Context())
	if err != nil {
		s.writeUpstreamError(w, err, "unable to fetch market data")
		return
	}

	store := s.sessionStore(r)
	store.SetAvailable(entries)
	s.wsHub.Broadcast(WSMessage{
		Type: "dashboard_updated",
		Data: map[string]any{"action": "refresh"},
	})
	writeSnapshot(w, store)
}

func writeSnapshot(w http.ResponseWriter, store *dashboard.Store) {
	available, selected := store.Snapshot()
	if available == nil {
		available = []models.MarketEntry{}
	}
	if selected == nil {
		selected = []models.MarketEntry{}
	}
	writeJSON(w, http.StatusOK, DashboardResponse{Available: available, Selected: selected})
}

// ============================================================
// Helpers
// ============================================================

// writeUpstreamError maps a client error to the proxy error contract:
// upstream statuses propagate with a generic message, everything else
// is an internal error. Upstream bodies are logged, never relayed.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error, msg string) {
	var ue *infra.UpstreamError
	if errors.As(err, &ue) {
		s.log.Warn("upstream error",
			zap.String("service", ue.Service),
			zap.Int("status", ue.Status),
			zap.ByteString("body", ue.Body),
		)
		writeError(w, ue.Status, msg)
		return
	}
	s.log.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing left to do but note it.
		zap.L().Warn("failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
