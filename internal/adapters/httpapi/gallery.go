package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/rmg/internal/app"
	"github.com/Guilhem-Bonnet/rmg/internal/domain"
	"github.com/Guilhem-Bonnet/rmg/internal/httpjson"
)

type GalleryHandler struct {
	session *app.GallerySession
}

func NewGalleryHandler(session *app.GallerySession) *GalleryHandler {
	return &GalleryHandler{session: session}
}

func (h *GalleryHandler) Routes(r chi.Router) {
	r.Route("/gallery", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/next", h.next)
		r.Post("/search", h.search)
		r.Delete("/search", h.clearSearch)
		r.Get("/characters/{index}", h.character)
	})
}

type galleryActionResponse struct {
	Outcome string          `json:"outcome"`
	View    app.GalleryView `json:"view"`
}

type searchRequest struct {
	Name string `json:"name"`
}

type characterResponse struct {
	domain.CharacterDetail
	Rows        []domain.DetailRow `json:"rows"`
	EpisodeRows []domain.DetailRow `json:"episodeRows"`
	// Error est renseigné quand la résolution des épisodes a échoué.
	Error string `json:"error,omitempty"`
}

func (h *GalleryHandler) view(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, h.session.View())
}

func (h *GalleryHandler) next(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.session.LoadNextPage(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, galleryActionResponse{Outcome: string(outcome), View: h.session.View()})
}

func (h *GalleryHandler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	outcome, err := h.session.Search(r.Context(), req.Name)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, galleryActionResponse{Outcome: string(outcome), View: h.session.View()})
}

func (h *GalleryHandler) clearSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.session.ClearSearch(); err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, galleryActionResponse{Outcome: string(app.SearchCleared), View: h.session.View()})
}

func (h *GalleryHandler) character(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpjson.WriteCodedError(w, http.StatusBadRequest, "invalid_params", "invalid index")
		return
	}
	detail, err := h.session.SelectCharacter(r.Context(), index)
	if errors.Is(err, app.ErrOutOfRange) {
		writeAppError(w, r, err)
		return
	}
	resp := characterResponse{
		CharacterDetail: detail,
		Rows:            detail.Rows(),
		EpisodeRows:     detail.EpisodeRows(),
	}
	if err != nil {
		// La fiche reste affichable sans ses épisodes.
		resp.Error = app.ErrorCode(err)
	}
	httpjson.Write(w, http.StatusOK, resp)
}
