package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/msto63/wtf/internal/acronym"
	"github.com/msto63/wtf/internal/wtf/store"
	"github.com/msto63/wtf/pkg/core/health"
	"github.com/msto63/wtf/pkg/core/logging"
)

// recordTimeout bounds how long a lookup waits on the stats store
const recordTimeout = 2 * time.Second

// Fetcher provides the raw acronym dataset
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// LookupResponse represents the answer for one acronym
type LookupResponse struct {
	Query   string   `json:"query"`
	Key     string   `json:"key"`
	Found   bool     `json:"found"`
	Entries []string `json:"entries"`
	Text    string   `json:"text"`
}

// SearchResponse represents fuzzy search results
type SearchResponse struct {
	Query   string          `json:"query"`
	Matches []acronym.Match `json:"matches"`
	Total   int             `json:"total"`
}

// StatsResponse represents lookup statistics
type StatsResponse struct {
	Totals      map[string]int64      `json:"totals"`
	TopMissed   []store.KeywordLookup `json:"top_missed"`
	TopResolved []store.KeywordLookup `json:"top_resolved"`
}

// Config holds handler dependencies
type Config struct {
	Version string
	Tokens  []string
	Fetcher Fetcher

	// Optional
	Stats  store.LookupStore
	Health *health.Registry
}

// Handler handles HTTP requests for the acronym service
type Handler struct {
	fetcher   Fetcher
	tokens    []string
	stats     store.LookupStore
	health    *health.Registry
	logger    *logging.Logger
	startTime time.Time
	version   string
}

// NewHandler creates a new handler
func NewHandler(cfg Config) *Handler {
	return &Handler{
		fetcher:   cfg.Fetcher,
		tokens:    cfg.Tokens,
		stats:     cfg.Stats,
		health:    cfg.Health,
		logger:    logging.New("wtf-handler"),
		startTime: time.Now(),
		version:   cfg.Version,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/slack" || r.URL.Path == "/slack/" {
		h.handleSlack(w, r)
		return
	}

	// Route API requests
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		h.handleRoot(w, r)
	case "health":
		h.handleHealth(w, r)
	case "lookup":
		h.handleLookup(w, r)
	case "search":
		h.handleSearch(w, r)
	case "stats":
		h.handleStats(w, r)
	default:
		h.writeError(w, http.StatusNotFound, "not_found", "Endpoint not found", "")
	}
}

// handleRoot lists the available endpoints
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "wtf acronym service",
		"version": h.version,
		"endpoints": []string{
			"POST /slack",
			"GET  /api/v1/health",
			"GET  /api/v1/lookup?q={acronym}",
			"GET  /api/v1/search?q={pattern}&limit={n}",
			"GET  /api/v1/stats?limit={n}",
			"GET  /api/v1/ws",
		},
		"contribute": acronym.ContributeURL,
	}
	h.writeJSON(w, http.StatusOK, info)
}

// handleHealth reports the health registry
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	if h.health == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{
			"status":  string(health.StatusHealthy),
			"version": h.version,
			"uptime":  time.Since(h.startTime).String(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report := h.health.Check(ctx)
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, report)
}

// handleLookup answers a single acronym as JSON
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}
	if !h.authorized(requestToken(r)) {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Not authorized", "")
		return
	}

	query, ok := r.URL.Query()["q"]
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Query parameter q required", "")
		return
	}

	result, err := h.lookup(r.Context(), query[0])
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "source_unavailable", "Failed to fetch acronyms", err.Error())
		return
	}

	entries := make([]string, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = string(e)
	}
	h.writeJSON(w, http.StatusOK, LookupResponse{
		Query:   result.Query,
		Key:     result.Key,
		Found:   result.Found(),
		Entries: entries,
		Text:    result.String(),
	})
}

// handleSearch fuzzy matches acronym keys
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}
	if !h.authorized(requestToken(r)) {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Not authorized", "")
		return
	}

	pattern := r.URL.Query().Get("q")
	if strings.TrimSpace(pattern) == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Query parameter q required", "")
		return
	}
	limit, err := parseLimit(r, 10)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid limit", err.Error())
		return
	}

	raw, err := h.fetcher.Fetch(r.Context())
	if err != nil {
		h.logger.Error("Dataset fetch failed", "error", err)
		h.writeError(w, http.StatusBadGateway, "source_unavailable", "Failed to fetch acronyms", err.Error())
		return
	}

	matches := acronym.Search(acronym.Parse(raw), pattern, limit)
	if matches == nil {
		matches = []acronym.Match{}
	}
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:   pattern,
		Matches: matches,
		Total:   len(matches),
	})
}

// handleStats reports the most frequent lookups
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}
	if !h.authorized(requestToken(r)) {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Not authorized", "")
		return
	}
	if h.stats == nil {
		h.writeError(w, http.StatusServiceUnavailable, "stats_disabled", "Lookup statistics are disabled", "")
		return
	}
	limit, err := parseLimit(r, 10)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid limit", err.Error())
		return
	}

	ctx := r.Context()
	totals, err := h.stats.Totals(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to read statistics", err.Error())
		return
	}
	missed, err := h.stats.Top(ctx, store.OutcomeNotFound, limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to read statistics", err.Error())
		return
	}
	resolved, err := h.stats.Top(ctx, store.OutcomeResolved, limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to read statistics", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, StatsResponse{
		Totals:      totals,
		TopMissed:   nonNil(missed),
		TopResolved: nonNil(resolved),
	})
}

// lookup fetches and parses the dataset, then looks up query
func (h *Handler) lookup(ctx context.Context, query string) (acronym.Result, error) {
	raw, err := h.fetcher.Fetch(ctx)
	if err != nil {
		h.logger.Error("Dataset fetch failed", "error", err)
		return acronym.Result{}, err
	}

	result := acronym.Lookup(acronym.Parse(raw), query)
	h.logger.Info("Lookup served",
		"query", query,
		"outcome", result.Outcome.String(),
		"entries", len(result.Entries),
	)
	h.record(ctx, result)
	return result, nil
}

// record stores the lookup outcome; failures are only logged
func (h *Handler) record(ctx context.Context, result acronym.Result) {
	if h.stats == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := h.stats.Record(ctx, result.Key, result.Outcome.String()); err != nil {
		h.logger.Warn("Failed to record lookup", "key", result.Key, "error", err)
	}
}

// authorized reports whether token is one of the configured tokens
func (h *Handler) authorized(token string) bool {
	if token == "" {
		return false
	}
	for _, t := range h.tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return true
		}
	}
	return false
}

// requestToken reads a bearer token or the token query parameter
func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// parseLimit reads the limit query parameter. Limits below one are rejected.
func parseLimit(r *http.Request, def int) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

func nonNil(l []store.KeywordLookup) []store.KeywordLookup {
	if l == nil {
		return []store.KeywordLookup{}
	}
	return l
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	h.writeJSON(w, status, resp)
}
