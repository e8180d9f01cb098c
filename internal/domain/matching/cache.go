package matching

import (
	"context"
	"errors"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ErrNotCached is returned by Cache.Get when no entry exists for the key.
var ErrNotCached = errors.New("matching: result not cached")

// CacheKey builds the version key for a cached pair result from both
// profile version hashes and the requester's weight fingerprint.
func CacheKey(requesterHash, candidateHash, weightsFingerprint string) string {
	return requesterHash + ":" + candidateHash + ":" + weightsFingerprint
}

// Cache is the optional write-through store for computed results.
//
// versionKey must encode both parties' preference version hashes and the
// requester's weight fingerprint, so any input change produces a fresh
// key and a stale score can never be read back. InvalidateUser is an
// eviction optimization on top of that, not a correctness requirement.
type Cache interface {
	// Get returns the cached result for the key, or ErrNotCached.
	Get(ctx context.Context, requesterID, candidateID shared.UserID, versionKey string) (*Result, error)

	// Set stores a computed result under the key.
	Set(ctx context.Context, requesterID, candidateID shared.UserID, versionKey string, res Result) error

	// InvalidateUser drops every cached result the user participates in,
	// on either side of the pair.
	InvalidateUser(ctx context.Context, userID shared.UserID) error
}
