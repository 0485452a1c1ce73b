package ports

import "errors"

var ErrNotFound = errors.New("not found")

// ErrOutOfRange signale un index qui n'est plus valide pour le dataset courant.
var ErrOutOfRange = errors.New("index out of range")
