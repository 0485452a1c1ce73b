package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/rmg/internal/domain"
)

// Fetcher fait un GET et renvoie le corps brut. L'annulation passe par ctx.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type CharacterCatalogue interface {
	// ListCharacters charge une page; pageURL vide = racine de la collection.
	ListCharacters(ctx context.Context, pageURL string) (domain.CharacterPage, error)
	SearchCharacters(ctx context.Context, name string) (domain.CharacterPage, error)
}

type EpisodeCatalogue interface {
	GetEpisodes(ctx context.Context, ids []int) ([]domain.Episode, error)
	ResolveCharacterNames(ctx context.Context, episode domain.Episode) ([]string, error)
}
