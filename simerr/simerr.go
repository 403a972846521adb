// Package simerr defines the error classes shared by the simulation packages.
// Errors are wrapped with context via fmt.Errorf and matched with errors.Is.
package simerr

import "errors"

var (
	// ErrValidation marks malformed input or an out-of-domain value.
	ErrValidation = errors.New("validation error")

	// ErrLookup marks a reference to a grid coordinate that does not exist.
	ErrLookup = errors.New("lookup error")

	// ErrConfiguration marks an attempt to set an unknown parameter name.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownSpecies marks a population entry with an unrecognised species tag.
	ErrUnknownSpecies = errors.New("unknown species")
)
