package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hunter/lead-enricher/internal/config"
	"github.com/hunter/lead-enricher/internal/db"
	"github.com/hunter/lead-enricher/internal/fetch"
	"github.com/hunter/lead-enricher/internal/llm"
	"github.com/hunter/lead-enricher/internal/search"
	"github.com/hunter/lead-enricher/internal/server/ratelimit"
	"github.com/hunter/lead-enricher/internal/session"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         *config.Config
	store       *session.Store
	db          *db.DB
	fetcher     *fetch.CachedFetcher
	rateLimiter *ratelimit.Limiter

	keysMu sync.RWMutex
	keys   config.Keys
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil server config")
	}

	s := &Server{
		cfg:  cfg,
		keys: config.KeysFromEnv(),
	}

	// The page cache is optional. Without DATABASE_URL every fetch
	// goes straight to the network.
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		s.db = database
	}

	s.fetcher = fetch.NewCachedFetcher(s.db, nil)
	s.store = session.NewStore(session.DefaultIdleTTL)
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Session lifecycle
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)

	// API key management
	mux.HandleFunc("GET /keys", s.handleGetKeys)
	mux.HandleFunc("POST /keys", s.handleSetKeys)
	mux.HandleFunc("POST /keys/test", s.handleTestKeys)

	// Company context workflow
	mux.HandleFunc("POST /sessions/{id}/context/analyze", s.handleAnalyzeContext)
	mux.HandleFunc("POST /sessions/{id}/context/adjust", s.handleAdjustContext)
	mux.HandleFunc("PUT /sessions/{id}/context", s.handleUpdateContext)
	mux.HandleFunc("POST /sessions/{id}/context/approve", s.handleApproveContext)
	mux.HandleFunc("POST /sessions/{id}/context/reset", s.handleResetContext)

	// Contact table workflow
	mux.HandleFunc("POST /sessions/{id}/contacts", s.handleUploadContacts)
	mux.HandleFunc("GET /sessions/{id}/contacts", s.handleGetContacts)
	mux.HandleFunc("PUT /sessions/{id}/contacts/rows/{index}", s.handleUpdateRow)
	mux.HandleFunc("POST /sessions/{id}/mapping", s.handleSetMapping)
	mux.HandleFunc("POST /sessions/{id}/scrape", s.handleScrape)
	mux.HandleFunc("POST /sessions/{id}/contacts/remove-failed", s.handleRemoveFailed)
	mux.HandleFunc("POST /sessions/{id}/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /sessions/{id}/download", s.handleDownload)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for scrape and analyze batches
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.store.Stop()
	if s.db != nil {
		s.db.Close()
	}
	log.Println("Server stopped")
	return nil
}

// currentKeys returns a snapshot of the configured API keys.
func (s *Server) currentKeys() config.Keys {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return s.keys
}

// llmClient builds an LLM client from the current keys and server config.
// The provider decides which key authenticates.
func (s *Server) llmClient(ctx context.Context) (llm.Client, error) {
	keys := s.currentKeys()

	llmCfg := llm.DefaultOpenRouterConfig()
	apiKey := keys.OpenRouter
	keyName := config.EnvOpenRouterKey
	if s.cfg.Provider == string(llm.ProviderGemini) {
		llmCfg = llm.DefaultGeminiConfig()
		apiKey = keys.Gemini
		keyName = config.EnvGeminiKey
	}
	if apiKey == "" {
		return nil, &ErrMissingKey{Key: keyName}
	}
	if s.cfg.Model != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, s.cfg.Model)
	}
	return llm.NewClient(ctx, llmCfg, apiKey)
}

// searchClient builds a Tavily client, or nil when no key is configured.
func (s *Server) searchClient() *search.Client {
	keys := s.currentKeys()
	if !keys.HasTavily() {
		return nil
	}
	client, err := search.NewClient(keys.Tavily)
	if err != nil {
		return nil
	}
	return client
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		s.setRateLimitHeaders(w, info)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// handlerError maps an error to its HTTP status and writes the response.
func (s *Server) handlerError(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), err.Error())
}

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
