package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/rmg/internal/app"
	"github.com/Guilhem-Bonnet/rmg/internal/domain"
	"github.com/Guilhem-Bonnet/rmg/internal/httpjson"
	"github.com/Guilhem-Bonnet/rmg/internal/ports"
)

type EpisodesHandler struct {
	episodes ports.EpisodeCatalogue
	// session est optionnelle: elle porte le cache d'enrichissement et les hooks UI.
	session *app.GallerySession
}

func NewEpisodesHandler(episodes ports.EpisodeCatalogue, session *app.GallerySession) *EpisodesHandler {
	return &EpisodesHandler{episodes: episodes, session: session}
}

func (h *EpisodesHandler) Routes(r chi.Router) {
	r.Route("/episodes", func(r chi.Router) {
		r.Get("/{ids}", h.get)
		r.Get("/{ids}/characters", h.characters)
	})
}

type episodeResponse struct {
	domain.EpisodeDetail
	Rows  []domain.DetailRow `json:"rows"`
	Error string             `json:"error,omitempty"`
}

// parseIDs lit "1,2,3". Chaque élément doit être un entier positif.
func parseIDs(raw string) ([]int, bool) {
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || id <= 0 {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, len(ids) > 0
}

func (h *EpisodesHandler) get(w http.ResponseWriter, r *http.Request) {
	ids, ok := parseIDs(chi.URLParam(r, "ids"))
	if !ok {
		httpjson.WriteCodedError(w, http.StatusBadRequest, "invalid_params", "invalid episode ids")
		return
	}
	eps, err := h.episodes.GetEpisodes(r.Context(), ids)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, eps)
}

func (h *EpisodesHandler) characters(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "ids"))
	if err != nil || id <= 0 {
		httpjson.WriteCodedError(w, http.StatusBadRequest, "invalid_params", "invalid episode id")
		return
	}
	eps, err := h.episodes.GetEpisodes(r.Context(), []int{id})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if len(eps) == 0 {
		httpjson.WriteCodedError(w, http.StatusNotFound, "not_found", "episode not found")
		return
	}

	var detail domain.EpisodeDetail
	if h.session != nil {
		detail, err = h.session.OpenEpisode(r.Context(), eps[0])
	} else {
		detail = domain.EpisodeDetail{Episode: eps[0]}
		detail.CharacterNames, err = h.episodes.ResolveCharacterNames(r.Context(), eps[0])
		detail.Resolved = err == nil
	}
	resp := episodeResponse{EpisodeDetail: detail, Rows: detail.Rows()}
	if err != nil {
		resp.Error = app.ErrorCode(err)
	}
	httpjson.Write(w, http.StatusOK, resp)
}
