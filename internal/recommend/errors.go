package recommend

import "errors"

var (
	// ErrInvalidAlgorithm rejects algorithm names outside
	// collaborative/content/hybrid before any computation starts.
	ErrInvalidAlgorithm = errors.New("invalid recommendation algorithm")

	// ErrInvalidLimit rejects non-positive or oversized limits.
	ErrInvalidLimit = errors.New("invalid recommendation limit")

	// ErrUnknownBook marks a similar-items request for a book id that is not
	// in the catalog.
	ErrUnknownBook = errors.New("unknown book")
)
