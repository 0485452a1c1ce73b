package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Guilhem-Bonnet/rmg/internal/domain"
	"github.com/Guilhem-Bonnet/rmg/internal/ports"
)

var (
	ErrNotFound   = ports.ErrNotFound
	ErrOutOfRange = ports.ErrOutOfRange
	ErrNoIDs      = errors.New("empty id list")
)

// CodedError porte un code d'erreur stable, exposé par l'API locale et les events.
//
// Codes: transport_error, decode_error, out_of_range, invalid_transition, invalid_params, canceled.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }

// TransportError couvre les échecs réseau, timeouts et statuts non-2xx.
// Status vaut 0 quand aucune réponse n'a été reçue.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type DecodeError struct {
	Shape Shape
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Shape, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrorCode associe err à l'un des codes stables ci-dessus.
func ErrorCode(err error) string {
	var coded *CodedError
	var transport *TransportError
	var decode *DecodeError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &coded) && coded.Code != "":
		return coded.Code
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &decode):
		return "decode_error"
	case errors.As(err, &transport):
		return "transport_error"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrNoIDs):
		return "invalid_params"
	default:
		return "internal"
	}
}
