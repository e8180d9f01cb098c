package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/matching"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/preference"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/roommate"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

const (
	requesterID  = "2e9b1c1a-0000-4000-8000-000000000001"
	neatFreakID  = "2e9b1c1a-0000-4000-8000-000000000002"
	nightOwlID   = "2e9b1c1a-0000-4000-8000-000000000003"
	blankUserID  = "2e9b1c1a-0000-4000-8000-000000000004"
	outsiderID   = "2e9b1c1a-0000-4000-8000-000000000005"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakePrefRepo struct {
	profiles map[shared.UserID]*preference.Profile
	weights  map[shared.UserID]preference.WeightSet
}

func newFakePrefRepo() *fakePrefRepo {
	return &fakePrefRepo{
		profiles: make(map[shared.UserID]*preference.Profile),
		weights:  make(map[shared.UserID]preference.WeightSet),
	}
}

func (r *fakePrefRepo) GetProfile(_ context.Context, userID shared.UserID) (*preference.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrPreferencesNotFound
	}
	return p, nil
}

func (r *fakePrefRepo) GetProfiles(_ context.Context, userIDs []shared.UserID) (map[shared.UserID]*preference.Profile, error) {
	out := make(map[shared.UserID]*preference.Profile)
	for _, id := range userIDs {
		if p, ok := r.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakePrefRepo) SaveProfile(_ context.Context, profile *preference.Profile) error {
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *fakePrefRepo) GetWeights(_ context.Context, userID shared.UserID) (preference.WeightSet, error) {
	return r.weights[userID], nil
}

func (r *fakePrefRepo) SaveWeights(_ context.Context, userID shared.UserID, weights preference.WeightSet) error {
	r.weights[userID] = weights
	return nil
}

func (r *fakePrefRepo) ListRecentlyActive(_ context.Context, _ time.Time, _ int) ([]shared.UserID, error) {
	return nil, nil
}

type fakePoolRepo struct {
	pool map[shared.UserID][]shared.UserID
}

func (r *fakePoolRepo) CreateProposal(context.Context, *roommate.Proposal) error { return nil }
func (r *fakePoolRepo) GetProposal(context.Context, string) (*roommate.Proposal, error) {
	return nil, shared.ErrProposalNotFound
}
func (r *fakePoolRepo) UpdateProposal(context.Context, *roommate.Proposal) error { return nil }
func (r *fakePoolRepo) OpenProposalExists(context.Context, shared.UserID, shared.UserID) (bool, error) {
	return false, nil
}
func (r *fakePoolRepo) ListExpiredPending(context.Context, time.Time, int) ([]*roommate.Proposal, error) {
	return nil, nil
}
func (r *fakePoolRepo) CreateBlock(context.Context, *roommate.Block) error { return nil }
func (r *fakePoolRepo) ListCandidatePool(_ context.Context, requesterID shared.UserID) ([]shared.UserID, error) {
	return r.pool[requesterID], nil
}

type fakeCache struct {
	entries map[string]matching.Result
	gets    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]matching.Result)}
}

func (c *fakeCache) key(a, b shared.UserID, versionKey string) string {
	return string(a) + "|" + string(b) + "|" + versionKey
}

func (c *fakeCache) Get(_ context.Context, a, b shared.UserID, versionKey string) (*matching.Result, error) {
	c.gets++
	res, ok := c.entries[c.key(a, b, versionKey)]
	if !ok {
		return nil, matching.ErrNotCached
	}
	return &res, nil
}

func (c *fakeCache) Set(_ context.Context, a, b shared.UserID, versionKey string, res matching.Result) error {
	c.sets++
	c.entries[c.key(a, b, versionKey)] = res
	return nil
}

func (c *fakeCache) InvalidateUser(context.Context, shared.UserID) error { return nil }

type fakeBus struct {
	published []shared.Event
}

func (b *fakeBus) Publish(_ context.Context, event shared.Event) error {
	b.published = append(b.published, event)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────────────────────

func profileWith(userID string, cleanliness int) *preference.Profile {
	return &preference.Profile{
		UserID: shared.UserID(userID),
		Lifestyle: &preference.LifestylePreferences{
			CleanlinessLevel: cleanliness,
		},
	}
}

func seededRepos() (*fakePrefRepo, *fakePoolRepo) {
	prefRepo := newFakePrefRepo()
	prefRepo.profiles[requesterID] = profileWith(requesterID, 5)
	prefRepo.profiles[neatFreakID] = profileWith(neatFreakID, 5)
	prefRepo.profiles[nightOwlID] = profileWith(nightOwlID, 1)
	// blankUserID is in the pool but never filled the questionnaire.

	poolRepo := &fakePoolRepo{pool: map[shared.UserID][]shared.UserID{
		requesterID: {neatFreakID, nightOwlID, blankUserID},
	}}
	return prefRepo, poolRepo
}

// ─────────────────────────────────────────────────────────────────────────────
// RankRoommates
// ─────────────────────────────────────────────────────────────────────────────

func TestRankRoommatesOrdersByScore(t *testing.T) {
	prefRepo, poolRepo := seededRepos()
	handler := NewRankRoommatesHandler(prefRepo, poolRepo, nil)

	res, err := handler.Handle(context.Background(), RankRoommatesQuery{RequesterID: requesterID})

	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, neatFreakID, res.Matches[0].UserID)
	assert.Equal(t, 100, res.Matches[0].Score)
	assert.Equal(t, 1, res.Matches[0].Rank)
	assert.Equal(t, nightOwlID, res.Matches[1].UserID)
	assert.Equal(t, 2, res.Matches[1].Rank)
	assert.Greater(t, res.Matches[0].Score, res.Matches[1].Score)
	// The blank profile was in the pool but could not be scored.
	assert.Equal(t, 2, res.PoolSize)
}

func TestRankRoommatesLimit(t *testing.T) {
	prefRepo, poolRepo := seededRepos()
	handler := NewRankRoommatesHandler(prefRepo, poolRepo, nil)

	res, err := handler.Handle(context.Background(), RankRoommatesQuery{
		RequesterID: requesterID,
		Limit:       1,
	})

	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, neatFreakID, res.Matches[0].UserID)
}

func TestRankRoommatesMissingPrerequisite(t *testing.T) {
	prefRepo, poolRepo := seededRepos()
	handler := NewRankRoommatesHandler(prefRepo, poolRepo, nil)

	_, err := handler.Handle(context.Background(), RankRoommatesQuery{RequesterID: outsiderID})

	assert.ErrorIs(t, err, shared.ErrMissingPrerequisite)
}

func TestRankRoommatesEmptyPool(t *testing.T) {
	prefRepo, _ := seededRepos()
	poolRepo := &fakePoolRepo{pool: map[shared.UserID][]shared.UserID{}}
	handler := NewRankRoommatesHandler(prefRepo, poolRepo, nil)

	res, err := handler.Handle(context.Background(), RankRoommatesQuery{RequesterID: requesterID})

	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 0, res.PoolSize)
}

func TestRankRoommatesPublishesPoolRanked(t *testing.T) {
	prefRepo, poolRepo := seededRepos()
	bus := &fakeBus{}
	handler := NewRankRoommatesHandler(prefRepo, poolRepo, bus)

	_, err := handler.Handle(context.Background(), RankRoommatesQuery{RequesterID: requesterID})

	require.NoError(t, err)
	require.Len(t, bus.published, 1)
	assert.Equal(t, shared.EventPoolRanked, bus.published[0].EventType())
}

// ─────────────────────────────────────────────────────────────────────────────
// GetCompatibility
// ─────────────────────────────────────────────────────────────────────────────

func TestGetCompatibilityComputesAndCaches(t *testing.T) {
	prefRepo, _ := seededRepos()
	cache := newFakeCache()
	bus := &fakeBus{}
	handler := NewGetCompatibilityHandler(prefRepo, cache, bus)
	ctx := context.Background()

	query := GetCompatibilityQuery{RequesterID: requesterID, CandidateID: neatFreakID}

	first, err := handler.Handle(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 100, first.Score)
	assert.Equal(t, "excellent", first.Quality)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1, cache.sets)
	require.Len(t, bus.published, 1)
	assert.Equal(t, shared.EventMatchComputed, bus.published[0].EventType())

	second, err := handler.Handle(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, first.Score, second.Score)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, cache.sets)
	// No event on a cache hit.
	assert.Len(t, bus.published, 1)
}

func TestGetCompatibilityCacheKeyTracksInput(t *testing.T) {
	prefRepo, _ := seededRepos()
	cache := newFakeCache()
	handler := NewGetCompatibilityHandler(prefRepo, cache, nil)
	ctx := context.Background()

	query := GetCompatibilityQuery{RequesterID: requesterID, CandidateID: nightOwlID}

	first, err := handler.Handle(ctx, query)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	// The candidate changes their answers: the old entry must be unreachable.
	prefRepo.profiles[nightOwlID] = profileWith(nightOwlID, 5)

	second, err := handler.Handle(ctx, query)
	require.NoError(t, err)
	assert.False(t, second.FromCache)
	assert.NotEqual(t, first.Score, second.Score)
}

func TestGetCompatibilityWeightsChangeCacheKey(t *testing.T) {
	prefRepo, _ := seededRepos()
	cache := newFakeCache()
	handler := NewGetCompatibilityHandler(prefRepo, cache, nil)
	ctx := context.Background()

	query := GetCompatibilityQuery{RequesterID: requesterID, CandidateID: nightOwlID}

	_, err := handler.Handle(ctx, query)
	require.NoError(t, err)

	prefRepo.weights[requesterID] = preference.WeightSet{preference.DimCleanliness: preference.MaxWeight}

	second, err := handler.Handle(ctx, query)
	require.NoError(t, err)
	assert.False(t, second.FromCache)
	assert.Equal(t, 2, cache.sets)
}

func TestGetCompatibilityMissingRequester(t *testing.T) {
	prefRepo, _ := seededRepos()
	handler := NewGetCompatibilityHandler(prefRepo, nil, nil)

	_, err := handler.Handle(context.Background(), GetCompatibilityQuery{
		RequesterID: outsiderID,
		CandidateID: neatFreakID,
	})

	assert.ErrorIs(t, err, shared.ErrMissingPrerequisite)
}

func TestGetCompatibilityBlankCandidateScoresZero(t *testing.T) {
	prefRepo, _ := seededRepos()
	handler := NewGetCompatibilityHandler(prefRepo, nil, nil)

	res, err := handler.Handle(context.Background(), GetCompatibilityQuery{
		RequesterID: requesterID,
		CandidateID: blankUserID,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Empty(t, res.DimensionScores)
}
