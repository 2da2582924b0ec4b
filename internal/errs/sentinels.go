// Package errs contains sentinel errors used across layers for stable error mapping.
//
// Business-rule failures (bad role, missing project, duplicate member) are
// turned into reply text where they happen and never propagate as errors, so
// the sentinels cover only the conditions that cross layer boundaries.
package errs

import "errors"

var (
	// ErrUnauthorized indicates a failed login handshake: bad frame, unknown
	// user, or wrong credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a uniqueness violation, in particular a
	// username already bound to a live connection.
	ErrAlreadyExists = errors.New("already exists")
)
