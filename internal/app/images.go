package app

import (
	"context"
	"image"
	"sync"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/rmg/internal/ports"
)

type ImageEntry struct {
	URL    string
	Image  image.Image
	Format string
	Raw    []byte
}

type ImageResult struct {
	Entry ImageEntry
	Err   error
}

type runningImageRequest struct {
	url    string
	cancel context.CancelFunc
}

// ImageCache mémorise les images décodées par URL et suit les requêtes en cours par token.
//
// Deux requêtes simultanées sur la même URL ne sont pas fusionnées: la dernière
// terminée écrase l'entrée. Pas d'éviction: le cache vit autant que le process.
type ImageCache struct {
	fetcher ports.Fetcher
	limiter *DynamicLimiter
	logger  zerolog.Logger

	mu      sync.Mutex
	loaded  map[string]ImageEntry
	running map[string]runningImageRequest
}

func NewImageCache(fetcher ports.Fetcher, limiter *DynamicLimiter, logger zerolog.Logger) *ImageCache {
	return &ImageCache{
		fetcher: fetcher,
		limiter: limiter,
		logger:  logger,
		loaded:  map[string]ImageEntry{},
		running: map[string]runningImageRequest{},
	}
}

// Get sert url depuis le cache: done est appelé de façon synchrone et Get
// renvoie ("", false). Sinon un téléchargement part en tâche de fond et Get
// renvoie son token; done sera appelé depuis une autre goroutine.
func (c *ImageCache) Get(ctx context.Context, url string, done func(ImageResult)) (string, bool) {
	c.mu.Lock()
	if entry, ok := c.loaded[url]; ok {
		c.mu.Unlock()
		if done != nil {
			done(ImageResult{Entry: entry})
		}
		return "", false
	}
	token := xid.New().String()
	reqCtx, cancel := context.WithCancel(ctx)
	c.running[token] = runningImageRequest{url: url, cancel: cancel}
	c.mu.Unlock()

	go c.load(reqCtx, token, url, done)
	return token, true
}

// Cancel annule la requête du token. Token inconnu ou terminé: sans effet.
// Le callback en attente est quand même appelé, avec context.Canceled.
func (c *ImageCache) Cancel(token string) {
	c.mu.Lock()
	req, ok := c.running[token]
	delete(c.running, token)
	c.mu.Unlock()
	if ok {
		req.cancel()
		c.logger.Debug().Str("token", token).Str("url", req.url).Msg("image request canceled")
	}
}

// Load bloque jusqu'à ce que url soit disponible ou ctx terminé.
func (c *ImageCache) Load(ctx context.Context, url string) (ImageEntry, error) {
	results := make(chan ImageResult, 1)
	token, pending := c.Get(ctx, url, func(res ImageResult) { results <- res })
	if !pending {
		res := <-results
		return res.Entry, res.Err
	}
	select {
	case res := <-results:
		return res.Entry, res.Err
	case <-ctx.Done():
		c.Cancel(token)
		return ImageEntry{}, ctx.Err()
	}
}

func (c *ImageCache) Lookup(url string) (ImageEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.loaded[url]
	return entry, ok
}

func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.loaded)
}

// InFlight indique si une requête est en cours pour url.
func (c *ImageCache) InFlight(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, req := range c.running {
		if req.url == url {
			return true
		}
	}
	return false
}

// Pending renvoie le nombre de requêtes en cours.
func (c *ImageCache) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.running)
}

func (c *ImageCache) load(ctx context.Context, token, url string, done func(ImageResult)) {
	entry, err := c.fetch(ctx, url)

	c.mu.Lock()
	delete(c.running, token)
	if err == nil {
		c.loaded[url] = entry
	}
	c.mu.Unlock()

	if err != nil {
		entry = ImageEntry{URL: url}
		c.logger.Debug().Err(err).Str("url", url).Msg("image fetch failed")
	}
	if done != nil {
		done(ImageResult{Entry: entry, Err: err})
	}
}

func (c *ImageCache) fetch(ctx context.Context, url string) (ImageEntry, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return ImageEntry{}, &TransportError{URL: url, Err: err}
		}
		defer c.limiter.Release()
	}
	b, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return ImageEntry{}, err
	}
	img, format, err := DecodeImage(b)
	if err != nil {
		return ImageEntry{}, err
	}
	return ImageEntry{URL: url, Image: img, Format: format, Raw: b}, nil
}
