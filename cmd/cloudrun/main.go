// Package main provides the Google Cloud Run HTTP handler for the product image service.
// It accepts a product page URL, renders it with headless Chrome and returns
// the most likely primary product image (or the full ranking) as JSON.
// API key authentication is handled in this service.
package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"product-image-scraper/internal/config"
	"product-image-scraper/internal/models"
	"product-image-scraper/internal/scraper"

	"github.com/rs/zerolog"
)

const maxRequestBody = 1 << 16

// productImageScraper is the part of scraper.Scraper the handler depends on
type productImageScraper interface {
	ScrapeProductImage(ctx context.Context, targetURL string, policy models.OutputPolicy) (models.ProductImageResult, error)
}

// CloudRunHandler handles Google Cloud Run requests
type CloudRunHandler struct {
	scraper       productImageScraper
	apiKeys       []string
	keysLock      sync.RWMutex
	verboseErrors bool
	logger        zerolog.Logger
}

func NewCloudRunHandler(s productImageScraper, cfg config.ServerConfig, logger zerolog.Logger) *CloudRunHandler {
	h := &CloudRunHandler{
		scraper:       s,
		verboseErrors: cfg.VerboseErrors,
		logger:        logger,
	}
	h.setAPIKeys(cfg.APIKeys)
	return h
}

func (h *CloudRunHandler) setAPIKeys(keys []string) {
	h.keysLock.Lock()
	defer h.keysLock.Unlock()

	h.apiKeys = keys
	if len(keys) == 0 {
		h.logger.Warn().Msg("no API keys configured (SCRAPER_API_KEYS not set), all requests are allowed")
		return
	}
	h.logger.Info().Int("count", len(keys)).Msg("loaded API keys")
}

// validateAPIKey validates the API key from the request against configured keys
// Uses constant-time comparison to prevent timing attacks
func (h *CloudRunHandler) validateAPIKey(requestKey string) bool {
	h.keysLock.RLock()
	defer h.keysLock.RUnlock()

	// If no keys configured, allow all requests (development mode)
	if len(h.apiKeys) == 0 {
		return true
	}

	for _, validKey := range h.apiKeys {
		if subtle.ConstantTimeCompare([]byte(requestKey), []byte(validKey)) == 1 {
			return true
		}
	}
	return false
}

// requestKey reads the API key from the query string or the X-API-Key header
func requestKey(r *http.Request) string {
	if key := r.URL.Query().Get("key"); key != "" {
		return key
	}
	return r.Header.Get("X-API-Key")
}

// parseRequest reads url and mode from the query string (GET) or a JSON body (POST)
func parseRequest(r *http.Request) (models.ScrapeRequest, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		return models.ScrapeRequest{URL: q.Get("url"), Mode: q.Get("mode")}, nil
	}

	var req models.ScrapeRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return req, fmt.Errorf("%w: reading body: %v", models.ErrMalformedInput, err)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: invalid JSON body: %v", models.ErrMalformedInput, err)
	}
	// query mode overrides the body
	if m := r.URL.Query().Get("mode"); m != "" {
		req.Mode = m
	}
	return req, nil
}

// requestTimeout reads the timeout query parameter in milliseconds
func requestTimeout(r *http.Request) time.Duration {
	timeout := scraper.DefaultRequestTimeout
	if v := r.URL.Query().Get("timeout"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}
	return scraper.ClampTimeout(timeout)
}

// Handler is the main Cloud Run handler function
func (h *CloudRunHandler) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		h.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	h.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("request received")

	if !h.validateAPIKey(requestKey(r)) {
		h.errorResponse(w, http.StatusUnauthorized, "Invalid or missing API key", "")
		return
	}

	req, err := parseRequest(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body", sanitizeErrorMessage(err, h.verboseErrors))
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing \"url\" parameter", "")
		return
	}
	if _, err := scraper.ParseBaseURL(req.URL); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid URL format", "")
		return
	}
	policy, err := models.ParseOutputPolicy(req.Mode)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid mode", "expected best-one or full-ranked")
		return
	}

	timeout := requestTimeout(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	log := h.logger.With().Str("url", req.URL).Str("policy", string(policy)).Logger()
	log.Info().Dur("timeout", timeout).Msg("starting scrape")

	start := time.Now()
	result, err := h.scraper.ScrapeProductImage(ctx, req.URL, policy)
	duration := time.Since(start)

	var cfErr *models.CloudflareBlockError
	switch {
	case err == nil:
	case errors.As(err, &cfErr):
		log.Warn().Str("domain", cfErr.Domain).Msg("blocked by site protection")
		h.writeJSON(w, http.StatusInternalServerError, models.BlockedResponse{
			Error:    "Blocked by site protection",
			Provider: "cloudflare",
			Domain:   cfErr.Domain,
			Metadata: models.Metadata{
				URL:        req.URL,
				Policy:     policy,
				ScrapedAt:  time.Now(),
				DurationMs: duration.Milliseconds(),
			},
		})
		return
	case models.IsNotFound(err):
		log.Info().Err(err).Int64("durationMs", duration.Milliseconds()).Msg("no product image")
		h.errorResponse(w, http.StatusNotFound, notFoundMessage(err), "")
		return
	case errors.Is(err, models.ErrMalformedInput):
		h.errorResponse(w, http.StatusBadRequest, "Malformed input", sanitizeErrorMessage(err, h.verboseErrors))
		return
	default:
		log.Error().
			Err(err).
			Str("errorType", fmt.Sprintf("%T", err)).
			Dur("timeout", timeout).
			Int64("durationMs", duration.Milliseconds()).
			Msg("scrape failed")
		h.errorResponse(w, http.StatusInternalServerError, "Failed to scrape", sanitizeErrorMessage(err, h.verboseErrors))
		return
	}

	result.Metadata.URL = req.URL
	result.Metadata.Policy = policy
	result.Metadata.ScrapedAt = time.Now()
	result.Metadata.DurationMs = duration.Milliseconds()

	log.Info().Int64("durationMs", duration.Milliseconds()).Msg("scrape complete")
	h.writeJSON(w, http.StatusOK, result)
}

// notFoundMessage is the public message for the two "nothing found" outcomes
func notFoundMessage(err error) string {
	if errors.Is(err, models.ErrNoCandidatesFound) {
		return "No images could be found on the page."
	}
	return "Could not identify a suitable product image."
}

// sanitizeErrorMessage sanitizes error messages for public responses
// Truncates long messages, removes sensitive info, but keeps enough detail for debugging
func sanitizeErrorMessage(err error, verbose bool) string {
	if err == nil {
		return "unknown error"
	}

	errorMsg := err.Error()

	if verbose {
		if len(errorMsg) > 500 {
			return errorMsg[:500] + "..."
		}
		return errorMsg
	}

	errorMsg = strings.ReplaceAll(errorMsg, "/app/", "")
	errorMsg = strings.ReplaceAll(errorMsg, "/tmp/", "")

	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(errorMsg, "context deadline exceeded") || strings.Contains(errorMsg, "timeout") {
		return "timeout: request took too long"
	}
	if strings.Contains(errorMsg, "403") {
		return "access denied: site blocked the request"
	}
	if strings.Contains(errorMsg, "ERR_NAME_NOT_RESOLVED") || strings.Contains(errorMsg, "network") || strings.Contains(errorMsg, "connection") {
		return "network error: could not connect to target site"
	}
	if strings.Contains(errorMsg, "executable file not found") {
		return "browser unavailable"
	}

	if len(errorMsg) > 200 {
		return errorMsg[:200] + "..."
	}
	return errorMsg
}

func (h *CloudRunHandler) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("writing response")
	}
}

// errorResponse creates an error response
func (h *CloudRunHandler) errorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	h.writeJSON(w, statusCode, models.ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// newLogger builds the process logger. Cloud Run ingests JSON lines from stdout.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("service", "product-image-scraper").Logger()
}

// loadScrapeConfig builds the browser and heuristic settings from defaults,
// the optional config file and the environment, in that order
func loadScrapeConfig(path string) (config.ScrapeConfig, config.ProductImageConfig, error) {
	sc := config.DefaultScrapeConfig()
	ic := config.DefaultProductImageConfig()
	if path != "" {
		fc, err := config.LoadConfigFile(path)
		if err != nil {
			return sc, ic, err
		}
		if err := config.ApplyFileConfig(&sc, &ic, fc); err != nil {
			return sc, ic, fmt.Errorf("config %s: %w", path, err)
		}
	}
	config.ApplyEnv(&sc)
	return sc, ic, nil
}

func main() {
	serverCfg := config.LoadServerConfig()
	logger := newLogger(serverCfg.LogLevel)

	sc, ic, err := loadScrapeConfig(serverCfg.ConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading configuration")
	}

	s, err := scraper.NewScraper(sc, ic, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("building scraper")
	}
	handler := NewCloudRunHandler(s, serverCfg, logger)

	logger.Info().Str("port", serverCfg.Port).Msg("starting server")
	http.HandleFunc("/", handler.Handler)

	if err := http.ListenAndServe(":"+serverCfg.Port, nil); err != nil {
		logger.Error().Err(err).Msg("server failed to start")
		os.Exit(1)
	}
}
