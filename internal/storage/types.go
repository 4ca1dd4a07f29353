package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// Options tunes the merge behavior shared by all store implementations.
// The constants are empirically chosen; they are configurable rather than
// hard-coded so deployments can adjust them.
type Options struct {
	// MergeThreshold is the minimum ratio of new confidence to existing
	// confidence for an upsert to modify an existing row.
	MergeThreshold float64

	// MergeDecayFloor is the minimum decay_score a row is lifted to when a
	// merge succeeds, signaling renewed relevance.
	MergeDecayFloor float64
}

// DefaultOptions returns the standard merge tuning.
func DefaultOptions() Options {
	return Options{
		MergeThreshold:  0.8,
		MergeDecayFloor: 0.5,
	}
}

// Normalize fills zero values with defaults. Store constructors call this so
// a zero Options behaves like DefaultOptions().
func (o Options) Normalize() Options {
	def := DefaultOptions()
	if o.MergeThreshold <= 0 {
		o.MergeThreshold = def.MergeThreshold
	}
	if o.MergeDecayFloor <= 0 {
		o.MergeDecayFloor = def.MergeDecayFloor
	}
	return o
}
