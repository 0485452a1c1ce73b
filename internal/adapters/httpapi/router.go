package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/rmg/internal/app"
	"github.com/Guilhem-Bonnet/rmg/internal/ports"
)

type Server struct {
	logger   zerolog.Logger
	session  *app.GallerySession
	episodes ports.EpisodeCatalogue
	images   *app.ImageCache
	bus      ports.EventBus
	// imageLimiter est optionnel et permet d'ajuster maxConcurrentImages à chaud.
	imageLimiter *app.DynamicLimiter
	// imageHosts borne /images aux hôtes du catalogue.
	imageHosts []string
}

func NewServer(logger zerolog.Logger, session *app.GallerySession, episodes ports.EpisodeCatalogue, images *app.ImageCache, bus ports.EventBus, imageLimiter *app.DynamicLimiter) *Server {
	return &Server{logger: logger, session: session, episodes: episodes, images: images, bus: bus, imageLimiter: imageLimiter}
}

func (s *Server) WithImageHosts(hosts ...string) *Server {
	s.imageHosts = append(s.imageHosts, hosts...)
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		// Le flux SSE reste ouvert: pas de timeout de requête.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultRequestTimeout))

			r.Get("/health", s.handleHealth)
			r.Get("/version", s.handleVersion)
			r.Get("/openapi.json", s.handleOpenAPI)

			if s.session != nil {
				NewGalleryHandler(s.session).Routes(r)
			}
			if s.episodes != nil {
				NewEpisodesHandler(s.episodes, s.session).Routes(r)
			}
			if s.images != nil {
				NewImagesHandler(s.images, s.imageHosts...).Routes(r)
			}
			if s.imageLimiter != nil {
				NewSettingsHandler(s.imageLimiter).Routes(r)
			}
		})
	})

	return r
}
