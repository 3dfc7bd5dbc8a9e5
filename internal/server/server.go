// Package server exposes the lyric cache over HTTP for the analysis
// orchestrator and for operational tooling.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"lyric-cache/internal/cache"
	"lyric-cache/internal/common/errors"
	"lyric-cache/internal/middleware"
	"lyric-cache/internal/store"
)

// Handlers holds the dependencies for the HTTP surface.
type Handlers struct {
	cache *cache.Cache
	store store.Store
}

func New(c *cache.Cache, st store.Store) *Handlers {
	return &Handlers{
		cache: c,
		store: st,
	}
}

// Router builds the HTTP routes.
func (h *Handlers) Router() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/cache/lookup", h.Lookup).Methods("POST")
	api.HandleFunc("/cache", h.Store).Methods("POST")
	api.HandleFunc("/cache", h.ClearAll).Methods("DELETE")
	api.HandleFunc("/maintenance/expired", h.ClearExpired).Methods("POST")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	return middleware.Logging(router)
}

type lookupRequest struct {
	Lyrics      string        `json:"lyrics"`
	Preferences cache.Options `json:"preferences,omitempty"`
}

type storeRequest struct {
	Lyrics      string                 `json:"lyrics"`
	Preferences cache.Options          `json:"preferences,omitempty"`
	Result      map[string]interface{} `json:"result"`
	TTLSeconds  int                    `json:"ttl,omitempty"`
}

// Lookup returns the cached analysis result for the submitted lyrics, or 404.
// A miss is reported identically whether the entry is absent, expired, or
// unreadable.
func (h *Handlers) Lookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Lyrics == "" {
		http.Error(w, "Lyrics are required", http.StatusBadRequest)
		return
	}

	result, found := h.cache.Get(r.Context(), req.Lyrics, req.Preferences)
	if !found {
		http.Error(w, "No cached result", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Store caches an analysis result.
func (h *Handlers) Store(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Lyrics == "" {
		http.Error(w, "Lyrics are required", http.StatusBadRequest)
		return
	}
	if req.Result == nil {
		http.Error(w, "Result is required", http.StatusBadRequest)
		return
	}

	if err := h.cache.Set(r.Context(), req.Lyrics, req.Result, req.Preferences, req.TTLSeconds); err != nil {
		if errors.IsType(err, errors.ErrTypeValidation) || errors.IsType(err, errors.ErrTypeSerialization) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to cache result", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"key": cache.DeriveKey(req.Lyrics, req.Preferences),
	})
}

// ClearExpired removes expired entries from both tiers.
func (h *Handlers) ClearExpired(w http.ResponseWriter, r *http.Request) {
	removed := h.cache.ClearExpired(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}

// ClearAll empties the cache.
func (h *Handlers) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.cache.ClearAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// GetStats returns cache performance statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats(r.Context()))
}

// HealthCheck reports persistent-store health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Health(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
