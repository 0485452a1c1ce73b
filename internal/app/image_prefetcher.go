package app

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/rmg/internal/ports"
)

// ImagePrefetcher précharge dans le cache les portraits des personnages
// publiés dans un event gallery.changed.
type ImagePrefetcher struct {
	logger zerolog.Logger
	bus    ports.EventBus
	images *ImageCache

	// requested garde chaque URL déjà lancée: un échec n'est jamais relancé.
	mu        sync.Mutex
	requested map[string]struct{}
}

func NewImagePrefetcher(logger zerolog.Logger, bus ports.EventBus, images *ImageCache) *ImagePrefetcher {
	return &ImagePrefetcher{logger: logger, bus: bus, images: images, requested: map[string]struct{}{}}
}

func (p *ImagePrefetcher) Run(ctx context.Context) {
	if p == nil || p.bus == nil || p.images == nil {
		return
	}
	ch, cancel := p.bus.Subscribe(TopicGalleryChanged)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("image prefetcher stopped")
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			p.handleEvent(ctx, evt)
		}
	}
}

// handleEvent renvoie le nombre de téléchargements lancés.
func (p *ImagePrefetcher) handleEvent(ctx context.Context, evt ports.Event) int {
	if evt.Topic != TopicGalleryChanged {
		return 0
	}
	var view GalleryView
	if err := json.Unmarshal(evt.Payload, &view); err != nil {
		p.logger.Debug().Err(err).Msg("invalid gallery event")
		return 0
	}

	started := 0
	seen := map[string]struct{}{}
	for _, c := range view.Characters {
		u := strings.TrimSpace(c.Image)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if _, cached := p.images.Lookup(u); cached {
			continue
		}
		if p.images.InFlight(u) || !p.markRequested(u) {
			continue
		}
		if _, pending := p.images.Get(ctx, u, p.done); pending {
			started++
		}
	}
	if started > 0 {
		p.logger.Debug().Int("started", started).Uint64("generation", view.Generation).Msg("prefetching images")
	}
	return started
}

func (p *ImagePrefetcher) markRequested(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.requested[url]; ok {
		return false
	}
	p.requested[url] = struct{}{}
	return true
}

func (p *ImagePrefetcher) done(res ImageResult) {
	if res.Err != nil {
		p.logger.Debug().Err(res.Err).Str("url", res.Entry.URL).Msg("prefetch failed, placeholder kept")
	}
}
