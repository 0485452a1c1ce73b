package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/rmg/internal/domain"
	"github.com/Guilhem-Bonnet/rmg/internal/ports"
)

// GalleryView est une copie figée de l'état de session, remise aux renderers.
// Generation permet d'ignorer une vue plus ancienne que celle déjà affichée.
type GalleryView struct {
	Mode        domain.Mode        `json:"mode"`
	Characters  []domain.Character `json:"characters"`
	NextPageURL string             `json:"nextPageUrl,omitempty"`
	Query       string             `json:"query,omitempty"`
	HasSnapshot bool               `json:"hasSnapshot"`
	Loading     bool               `json:"loading"`
	Generation  uint64             `json:"generation"`
}

// SessionHooks regroupe les callbacks UI. Tous les champs sont optionnels.
type SessionHooks struct {
	OnChange    func(GalleryView)
	OnCharacter func(domain.CharacterDetail)
	OnEpisode   func(domain.EpisodeDetail)
	OnError     func(op string, err error)
}

type PageOutcome string

const (
	PageAppended PageOutcome = "appended"
	PageSkipped  PageOutcome = "skipped"
	PageStale    PageOutcome = "stale"
	PageFailed   PageOutcome = "failed"
)

type SearchOutcome string

const (
	SearchApplied    SearchOutcome = "applied"
	SearchSuppressed SearchOutcome = "suppressed"
	SearchStale      SearchOutcome = "stale"
	SearchCleared    SearchOutcome = "cleared"
	SearchSkipped    SearchOutcome = "skipped"
	SearchFailed     SearchOutcome = "failed"
)

type gallerySnapshot struct {
	characters []domain.Character
	cursor     string
}

// GallerySession porte le dataset de la galerie, son curseur, le mode de
// recherche et le snapshot d'avant recherche, tous modifiés sous un seul verrou.
//
// Les appels réseau se font hors verrou. Chaque transition incrémente la
// génération; une réponse dont la génération n'est plus courante est ignorée.
type GallerySession struct {
	logger     zerolog.Logger
	characters ports.CharacterCatalogue
	episodes   ports.EpisodeCatalogue
	bus        ports.EventBus
	hooks      SessionHooks
	enrich     *EnrichmentCache

	mu          sync.Mutex
	mode        domain.Mode
	dataset     []domain.Character
	cursor      string
	snapshot    *gallerySnapshot
	query       string
	pageLoading bool
	generation  uint64
}

func NewGallerySession(logger zerolog.Logger, characters ports.CharacterCatalogue, episodes ports.EpisodeCatalogue, bus ports.EventBus) *GallerySession {
	return &GallerySession{
		logger:     logger,
		characters: characters,
		episodes:   episodes,
		bus:        bus,
		enrich:     NewEnrichmentCache(),
		mode:       domain.ModeInitial,
	}
}

func (s *GallerySession) WithHooks(hooks SessionHooks) *GallerySession {
	s.hooks = hooks
	return s
}

func (s *GallerySession) View() GalleryView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Character renvoie le personnage à index, vérifié contre le dataset courant.
func (s *GallerySession) Character(index int) (domain.Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.dataset) {
		return domain.Character{}, false
	}
	return s.dataset[index], true
}

// LoadNextPage ajoute la page suivante au dataset (la racine depuis l'état
// initial). Sans effet en recherche, curseur épuisé ou page déjà en cours:
// les pages s'ajoutent dans l'ordre du curseur.
func (s *GallerySession) LoadNextPage(ctx context.Context) (PageOutcome, error) {
	s.mu.Lock()
	if s.mode == domain.ModeSearching || s.pageLoading || (s.mode == domain.ModeBrowsing && s.cursor == "") {
		s.mu.Unlock()
		return PageSkipped, nil
	}
	pageURL := s.cursor
	gen := s.generation
	s.pageLoading = true
	s.mu.Unlock()

	page, err := s.characters.ListCharacters(ctx, pageURL)

	s.mu.Lock()
	s.pageLoading = false
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug().Uint64("generation", gen).Msg("stale page dropped")
		return PageStale, nil
	}
	if err != nil {
		s.mu.Unlock()
		s.fail("load_page", err)
		return PageFailed, err
	}
	s.dataset = append(s.dataset, page.Characters...)
	s.cursor = page.NextPageURL()
	s.mode = domain.ModeBrowsing
	s.generation++
	view := s.viewLocked()
	s.mu.Unlock()

	s.logger.Debug().Int("added", len(page.Characters)).Int("total", len(view.Characters)).Msg("page appended")
	s.changed(view)
	return PageAppended, nil
}

// Search remplace le dataset par les personnages correspondant à name.
// La première recherche capture dataset et curseur; les frappes suivantes
// réutilisent ce snapshot. Un résultat aux mêmes noms que le dataset courant
// est ignoré. Un nom vide annule la recherche en cours.
func (s *GallerySession) Search(ctx context.Context, name string) (SearchOutcome, error) {
	if strings.TrimSpace(name) == "" {
		s.mu.Lock()
		if s.mode != domain.ModeSearching {
			s.mu.Unlock()
			return SearchSkipped, nil
		}
		view := s.restoreLocked()
		s.mu.Unlock()
		s.changed(view)
		return SearchCleared, nil
	}

	s.mu.Lock()
	if !domain.CanTransition(s.mode, domain.ModeSearching) {
		mode := s.mode
		s.mu.Unlock()
		return SearchSkipped, fmt.Errorf("search from %s: %w", mode, domain.ErrInvalidTransition)
	}
	if s.snapshot == nil {
		s.snapshot = &gallerySnapshot{characters: cloneCharacters(s.dataset), cursor: s.cursor}
	}
	s.mode = domain.ModeSearching
	s.query = name
	s.generation++
	gen := s.generation
	view := s.viewLocked()
	s.mu.Unlock()
	s.changed(view)

	page, err := s.characters.SearchCharacters(ctx, name)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug().Str("query", name).Msg("stale search dropped")
		return SearchStale, nil
	}
	if err != nil {
		s.mu.Unlock()
		s.fail("search", err)
		return SearchFailed, err
	}
	if domain.SameContent(page.Characters, s.dataset) {
		s.mu.Unlock()
		s.logger.Debug().Str("query", name).Msg("search result unchanged")
		return SearchSuppressed, nil
	}
	s.dataset = cloneCharacters(page.Characters)
	s.cursor = page.NextPageURL()
	s.generation++
	view = s.viewLocked()
	s.mu.Unlock()

	s.changed(view)
	return SearchApplied, nil
}

// ClearSearch restaure le dataset et le curseur capturés par la première recherche.
func (s *GallerySession) ClearSearch() error {
	s.mu.Lock()
	if s.mode != domain.ModeSearching {
		mode := s.mode
		s.mu.Unlock()
		return fmt.Errorf("clear search from %s: %w", mode, domain.ErrInvalidTransition)
	}
	view := s.restoreLocked()
	s.mu.Unlock()

	s.changed(view)
	return nil
}

// SelectCharacter résout les épisodes du personnage à index. Un échec de
// résolution atteint quand même OnCharacter, avec Resolved=false.
func (s *GallerySession) SelectCharacter(ctx context.Context, index int) (domain.CharacterDetail, error) {
	c, ok := s.Character(index)
	if !ok {
		s.logger.Debug().Int("index", index).Msg("select ignored: index out of range")
		return domain.CharacterDetail{}, fmt.Errorf("select character %d: %w", index, ErrOutOfRange)
	}

	detail := domain.CharacterDetail{Character: c}
	if eps, ok := s.enrich.Episodes(c.ID); ok {
		detail.Episodes = eps
		detail.Resolved = true
		s.characterResolved(detail)
		return detail, nil
	}

	ids := c.EpisodeIDs()
	if len(ids) == 0 {
		detail.Resolved = true
		s.enrich.PutEpisodes(c.ID, nil)
		s.characterResolved(detail)
		return detail, nil
	}

	eps, err := s.episodes.GetEpisodes(ctx, ids)
	if err != nil {
		s.fail("select_character", err)
		s.characterResolved(detail)
		return detail, err
	}
	s.enrich.PutEpisodes(c.ID, eps)
	detail.Episodes = eps
	detail.Resolved = true
	s.characterResolved(detail)
	return detail, nil
}

// OpenEpisode résout les noms des personnages de l'épisode.
func (s *GallerySession) OpenEpisode(ctx context.Context, episode domain.Episode) (domain.EpisodeDetail, error) {
	detail := domain.EpisodeDetail{Episode: episode}
	if names, ok := s.enrich.CharacterNames(episode.URL); ok {
		detail.CharacterNames = names
		detail.Resolved = true
		s.episodeResolved(detail)
		return detail, nil
	}

	names, err := s.episodes.ResolveCharacterNames(ctx, episode)
	if err != nil {
		s.fail("open_episode", err)
		s.episodeResolved(detail)
		return detail, err
	}
	s.enrich.PutCharacterNames(episode.URL, names)
	detail.CharacterNames = names
	detail.Resolved = true
	s.episodeResolved(detail)
	return detail, nil
}

func (s *GallerySession) restoreLocked() GalleryView {
	if s.snapshot != nil {
		s.dataset = s.snapshot.characters
		s.cursor = s.snapshot.cursor
	}
	s.snapshot = nil
	s.query = ""
	s.mode = domain.ModeBrowsing
	s.generation++
	return s.viewLocked()
}

func (s *GallerySession) viewLocked() GalleryView {
	return GalleryView{
		Mode:        s.mode,
		Characters:  cloneCharacters(s.dataset),
		NextPageURL: s.cursor,
		Query:       s.query,
		HasSnapshot: s.snapshot != nil,
		Loading:     s.pageLoading,
		Generation:  s.generation,
	}
}

func (s *GallerySession) changed(view GalleryView) {
	if s.hooks.OnChange != nil {
		s.hooks.OnChange(view)
	}
	s.publish(TopicGalleryChanged, view)
}

func (s *GallerySession) characterResolved(detail domain.CharacterDetail) {
	if s.hooks.OnCharacter != nil {
		s.hooks.OnCharacter(detail)
	}
	s.publish(TopicCharacterResolved, detail)
}

func (s *GallerySession) episodeResolved(detail domain.EpisodeDetail) {
	if s.hooks.OnEpisode != nil {
		s.hooks.OnEpisode(detail)
	}
	s.publish(TopicEpisodeResolved, detail)
}

// fail signale une erreur non fatale; le dataset reste intact.
func (s *GallerySession) fail(op string, err error) {
	s.logger.Warn().Err(err).Str("op", op).Msg("gallery operation failed")
	if s.hooks.OnError != nil {
		s.hooks.OnError(op, err)
	}
	s.publish(TopicGalleryError, ErrorEvent{Op: op, Code: ErrorCode(err), Message: err.Error()})
}

func (s *GallerySession) publish(topic string, v any) {
	if err := PublishEvent(s.bus, topic, v); err != nil {
		s.logger.Error().Err(err).Str("topic", topic).Msg("event dropped")
	}
}

func cloneCharacters(in []domain.Character) []domain.Character {
	out := make([]domain.Character, len(in))
	copy(out, in)
	return out
}
