package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/rmg/internal/app"
	"github.com/Guilhem-Bonnet/rmg/internal/httpjson"
)

// SettingsHandler expose les réglages ajustables à chaud (process courant uniquement).
type SettingsHandler struct {
	limiter *app.DynamicLimiter
}

func NewSettingsHandler(limiter *app.DynamicLimiter) *SettingsHandler {
	return &SettingsHandler{limiter: limiter}
}

type runtimeSettings struct {
	MaxConcurrentImages int `json:"maxConcurrentImages"`
}

func (h *SettingsHandler) Routes(r chi.Router) {
	r.Get("/settings", h.get)
	r.Put("/settings", h.put)
	// Variante avec slash final (utile selon reverse-proxy / clients).
	r.Get("/settings/", h.get)
	r.Put("/settings/", h.put)
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, runtimeSettings{MaxConcurrentImages: h.limiter.Limit()})
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request) {
	var s runtimeSettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if s.MaxConcurrentImages <= 0 {
		httpjson.WriteCodedError(w, http.StatusBadRequest, "invalid_params", "maxConcurrentImages must be > 0")
		return
	}
	h.limiter.SetLimit(s.MaxConcurrentImages)
	httpjson.Write(w, http.StatusOK, runtimeSettings{MaxConcurrentImages: h.limiter.Limit()})
}
