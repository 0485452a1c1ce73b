package app

import (
	"sync"

	"github.com/Guilhem-Bonnet/rmg/internal/domain"
)

// EnrichmentCache garde les données résolues à la demande, à côté des
// enregistrements immuables: épisodes par id de personnage, noms par URL d'épisode.
type EnrichmentCache struct {
	mu       sync.RWMutex
	episodes map[int][]domain.Episode
	names    map[string][]string
}

func NewEnrichmentCache() *EnrichmentCache {
	return &EnrichmentCache{
		episodes: map[int][]domain.Episode{},
		names:    map[string][]string{},
	}
}

func (c *EnrichmentCache) Episodes(characterID int) ([]domain.Episode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	eps, ok := c.episodes[characterID]
	if !ok {
		return nil, false
	}
	return append([]domain.Episode(nil), eps...), true
}

func (c *EnrichmentCache) PutEpisodes(characterID int, eps []domain.Episode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.episodes[characterID] = append([]domain.Episode(nil), eps...)
}

func (c *EnrichmentCache) CharacterNames(episodeURL string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names, ok := c.names[episodeURL]
	if !ok {
		return nil, false
	}
	return append([]string(nil), names...), true
}

func (c *EnrichmentCache) PutCharacterNames(episodeURL string, names []string) {
	if episodeURL == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[episodeURL] = append([]string(nil), names...)
}
