package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Guilhem-Bonnet/rmg/internal/adapters/httpapi"
	"github.com/Guilhem-Bonnet/rmg/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/rmg/internal/app"
	"github.com/Guilhem-Bonnet/rmg/internal/buildinfo"
	"github.com/Guilhem-Bonnet/rmg/internal/config"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "rmg-server").Logger()
	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	addr := flag.String("addr", cfg.Addr, "Adresse d'écoute (ex: 127.0.0.1:8080)")
	prefetch := flag.Bool("prefetch", cfg.PrefetchImages, "Précharger les portraits de la galerie")
	flag.Parse()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("invalid log level")
	}
	logger = logger.Level(level)

	logger.Info().Interface("build", buildinfo.Current()).Str("api", cfg.APIBaseURL).Msg("starting")

	bus := memorybus.New()
	defer bus.Close()

	fetcher := app.NewHTTPFetcher(cfg.HTTPTimeout).WithUserAgent("rmg/" + buildinfo.Version)
	catalogue := app.NewCatalogueClient(fetcher, logger.With().Str("component", "catalogue").Logger()).WithBaseURL(cfg.APIBaseURL)

	// Limiteur partagé par le cache d'images, ajustable via /api/v1/settings.
	imageLimiter := app.NewDynamicLimiter(cfg.MaxConcurrentImages)
	images := app.NewImageCache(fetcher, imageLimiter, logger.With().Str("component", "images").Logger())

	sessionLogger := logger.With().Str("component", "session").Logger()
	session := app.NewGallerySession(sessionLogger, catalogue, catalogue, bus).WithHooks(app.SessionHooks{
		OnChange: func(v app.GalleryView) {
			sessionLogger.Debug().Str("mode", string(v.Mode)).Int("characters", len(v.Characters)).Uint64("generation", v.Generation).Msg("gallery changed")
		},
	})

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *prefetch {
		prefetcher := app.NewImagePrefetcher(logger.With().Str("component", "prefetcher").Logger(), bus, images)
		go prefetcher.Run(shutdownCtx)
	}

	// Première page en tâche de fond: l'API locale répond pendant le chargement.
	go func() {
		if _, err := session.LoadNextPage(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("initial page failed")
		}
	}()

	apiURL, err := url.Parse(cfg.APIBaseURL)
	if err != nil || apiURL.Host == "" {
		logger.Fatal().Err(err).Str("api", cfg.APIBaseURL).Msg("invalid api base url")
	}
	// Les portraits (champ image) sont servis par l'hôte du catalogue.
	srv := httpapi.NewServer(logger, session, catalogue, images, bus, imageLimiter).WithImageHosts(apiURL.Host)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}
