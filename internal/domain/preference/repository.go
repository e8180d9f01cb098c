package preference

import (
	"context"
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// Repository is the preference store contract. Implementations must
// return shared.ErrPreferencesNotFound (via errors.Is on
// shared.ErrNotFound) when a user has no recorded profile.
type Repository interface {
	// GetProfile returns the user's preference snapshot.
	GetProfile(ctx context.Context, userID shared.UserID) (*Profile, error)

	// GetProfiles returns snapshots for many users in one round trip.
	// Users without a profile are simply absent from the result map.
	GetProfiles(ctx context.Context, userIDs []shared.UserID) (map[shared.UserID]*Profile, error)

	// SaveProfile upserts the user's preference snapshot. The profile
	// must already be validated.
	SaveProfile(ctx context.Context, profile *Profile) error

	// GetWeights returns the user's explicit question weights
	// (possibly empty, never nil error for a user with no weights).
	GetWeights(ctx context.Context, userID shared.UserID) (WeightSet, error)

	// SaveWeights replaces the user's explicit question weights.
	SaveWeights(ctx context.Context, userID shared.UserID, weights WeightSet) error

	// ListRecentlyActive returns users whose profile changed since the
	// cutoff. Used by the cache warmup job.
	ListRecentlyActive(ctx context.Context, since time.Time, limit int) ([]shared.UserID, error)
}
