package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Catalog errors
	ErrUnknownMode   = errors.New("mode id not present in catalog")
	ErrEmptyCatalog  = errors.New("mode catalog must not be empty")
	ErrDuplicateMode = errors.New("duplicate mode id in catalog")
	ErrInvalidRate   = errors.New("refresh rate must be positive")

	// Policy errors
	ErrBadRange           = errors.New("range minimum exceeds maximum or no mode satisfies it")
	ErrInconsistentRanges = errors.New("app request range must contain the primary range")

	// Layer tracker errors
	ErrUnknownSurface = errors.New("surface handle not registered")
	ErrInvalidWeight  = errors.New("layer weight must be within [0, 1]")

	// Storage errors
	ErrJournalClosed = errors.New("decision journal is closed")
)
