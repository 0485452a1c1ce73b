package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/rmg/internal/app"
	"github.com/Guilhem-Bonnet/rmg/internal/buildinfo"
	"github.com/Guilhem-Bonnet/rmg/internal/domain"
	"github.com/Guilhem-Bonnet/rmg/internal/httpjson"
)

const defaultRequestTimeout = 30 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

// writeAppError traduit les erreurs de l'app en statut HTTP + code stable.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	code := app.ErrorCode(err)
	status := http.StatusInternalServerError
	var transport *app.TransportError
	var decode *app.DecodeError
	switch {
	case errors.Is(err, app.ErrOutOfRange), errors.Is(err, app.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, app.ErrNoIDs):
		status = http.StatusBadRequest
	case code == "canceled":
		// client parti
		status = http.StatusServiceUnavailable
	case errors.As(err, &transport), errors.As(err, &decode):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		hlog.FromRequest(r).Warn().Err(err).Str("code", code).Msg("request failed")
	}
	httpjson.WriteCodedError(w, status, code, err.Error())
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}
