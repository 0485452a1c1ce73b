package app

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/Guilhem-Bonnet/rmg/internal/domain"
	"github.com/Guilhem-Bonnet/rmg/internal/ports"
)

const DefaultAPIBaseURL = "https://rickandmortyapi.com/api"

// CatalogueClient enchaîne fetch + décodage pour les endpoints personnages et épisodes.
type CatalogueClient struct {
	baseURL string
	fetcher ports.Fetcher
	logger  zerolog.Logger
}

func NewCatalogueClient(fetcher ports.Fetcher, logger zerolog.Logger) *CatalogueClient {
	return &CatalogueClient{
		baseURL: DefaultAPIBaseURL,
		fetcher: fetcher,
		logger:  logger,
	}
}

func (c *CatalogueClient) WithBaseURL(base string) *CatalogueClient {
	if strings.TrimSpace(base) != "" {
		c.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
	return c
}

func (c *CatalogueClient) CharactersURL() string {
	return c.baseURL + "/character"
}

func (c *CatalogueClient) ListCharacters(ctx context.Context, pageURL string) (domain.CharacterPage, error) {
	if strings.TrimSpace(pageURL) == "" {
		pageURL = c.CharactersURL()
	}
	b, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return domain.CharacterPage{}, err
	}
	page, err := DecodeCharacterPage(b)
	if err != nil {
		return domain.CharacterPage{}, err
	}
	c.logger.Debug().Str("url", pageURL).Int("count", len(page.Characters)).Bool("has_next", page.NextPageURL() != "").Msg("characters page loaded")
	return page, nil
}

func (c *CatalogueClient) SearchURL(name string) string {
	q := url.Values{}
	q.Set("name", norm.NFC.String(strings.TrimSpace(name)))
	return c.CharactersURL() + "?" + q.Encode()
}

// SearchCharacters filtre la collection par nom. Aucun résultat = page vide valide:
// l'API répond 404 "There is nothing here" dans ce cas.
func (c *CatalogueClient) SearchCharacters(ctx context.Context, name string) (domain.CharacterPage, error) {
	searchURL := c.SearchURL(name)
	b, err := c.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		var transport *TransportError
		if errors.As(err, &transport) && transport.Status == http.StatusNotFound {
			c.logger.Debug().Str("name", name).Msg("search has no match")
			return domain.CharacterPage{Characters: []domain.Character{}}, nil
		}
		return domain.CharacterPage{}, err
	}
	page, err := DecodeCharacterPage(b)
	if err != nil {
		return domain.CharacterPage{}, err
	}
	if page.Characters == nil {
		page.Characters = []domain.Character{}
	}
	return page, nil
}

// GetEpisodes résout les ids en une seule requête groupée, dans l'ordre demandé.
func (c *CatalogueClient) GetEpisodes(ctx context.Context, ids []int) ([]domain.Episode, error) {
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}
	b, err := c.fetcher.Fetch(ctx, c.baseURL+"/episode/"+domain.JoinIDs(ids))
	if err != nil {
		return nil, err
	}
	return DecodeEpisodes(b, len(ids))
}

func (c *CatalogueClient) GetCharacters(ctx context.Context, ids []int) ([]domain.Character, error) {
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}
	b, err := c.fetcher.Fetch(ctx, c.CharactersURL()+"/"+domain.JoinIDs(ids))
	if err != nil {
		return nil, err
	}
	return DecodeCharacters(b, len(ids))
}

// ResolveCharacterNames renvoie les noms des personnages de l'épisode, dans
// l'ordre de la réponse. Les références sans chiffre sont ignorées.
func (c *CatalogueClient) ResolveCharacterNames(ctx context.Context, episode domain.Episode) ([]string, error) {
	ids := episode.CharacterIDs()
	if len(ids) == 0 {
		return []string{}, nil
	}
	characters, err := c.GetCharacters(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(characters))
	for _, ch := range characters {
		names = append(names, ch.Name)
	}
	return names, nil
}
