package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/rmg/internal/app"
	"github.com/Guilhem-Bonnet/rmg/internal/httpjson"
)

type ImagesHandler struct {
	images *app.ImageCache
	// hosts liste les hôtes servis; une URL hors liste est refusée avant tout téléchargement.
	hosts map[string]struct{}
}

func NewImagesHandler(images *app.ImageCache, hosts ...string) *ImagesHandler {
	h := &ImagesHandler{images: images, hosts: map[string]struct{}{}}
	for _, host := range hosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			h.hosts[host] = struct{}{}
		}
	}
	return h
}

func (h *ImagesHandler) Routes(r chi.Router) {
	r.Get("/images", h.get)
}

// get sert une image depuis le cache; un miss déclenche le téléchargement.
func (h *ImagesHandler) get(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	u, err := url.Parse(raw)
	if raw == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		httpjson.WriteCodedError(w, http.StatusBadRequest, "invalid_params", "missing or invalid url")
		return
	}
	if _, ok := h.hosts[strings.ToLower(u.Host)]; !ok {
		httpjson.WriteCodedError(w, http.StatusForbidden, "invalid_params", "image host not allowed")
		return
	}

	entry, err := h.images.Load(r.Context(), raw)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/"+entry.Format)
	w.Header().Set("Content-Length", strconv.Itoa(len(entry.Raw)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(entry.Raw)
}
