package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/matching"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// MatchCache implements matching.Cache on top of the generic Redis cache.
//
// Keys embed both participants and the version key, so any change to
// either questionnaire or to the requester's weights addresses a fresh
// key. InvalidateUser is space reclamation, not a freshness mechanism.
type MatchCache struct {
	cache *Cache
}

// NewMatchCache creates a new MatchCache.
func NewMatchCache(cache *Cache) *MatchCache {
	return &MatchCache{cache: cache}
}

// matchKey builds "match:{requester}:{candidate}:{versionKey}".
func matchKey(requesterID, candidateID shared.UserID, versionKey string) string {
	return fmt.Sprintf("%s%s:%s:%s", PrefixMatch, requesterID, candidateID, versionKey)
}

// Get returns the cached result, or matching.ErrNotCached.
func (m *MatchCache) Get(ctx context.Context, requesterID, candidateID shared.UserID, versionKey string) (*matching.Result, error) {
	var res matching.Result
	err := m.cache.Get(ctx, matchKey(requesterID, candidateID, versionKey), &res)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, matching.ErrNotCached
		}
		return nil, err
	}
	return &res, nil
}

// Set stores a computed result under the versioned key.
func (m *MatchCache) Set(ctx context.Context, requesterID, candidateID shared.UserID, versionKey string, res matching.Result) error {
	return m.cache.Set(ctx, matchKey(requesterID, candidateID, versionKey), res, TTLMatchResult)
}

// InvalidateUser drops every cached result the user participates in,
// on either side of the pair.
func (m *MatchCache) InvalidateUser(ctx context.Context, userID shared.UserID) error {
	// Requester side, then candidate side.
	if err := m.cache.DeleteByPattern(ctx, PrefixMatch+string(userID)+":*"); err != nil {
		return err
	}
	return m.cache.DeleteByPattern(ctx, PrefixMatch+"*:"+string(userID)+":*")
}
