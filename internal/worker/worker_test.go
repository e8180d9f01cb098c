package worker

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
	aliceID = "7a3f2d1c-0000-4000-8000-00000000000a"
	bobID   = "7a3f2d1c-0000-4000-8000-00000000000b"
	caraID  = "7a3f2d1c-0000-4000-8000-00000000000c"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakePrefRepo struct {
	profiles map[shared.UserID]*preference.Profile
	weights  map[shared.UserID]preference.WeightSet
	active   []shared.UserID
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

func (r *fakePrefRepo) ListRecentlyActive(_ context.Context, _ time.Time, limit int) ([]shared.UserID, error) {
	if limit < len(r.active) {
		return r.active[:limit], nil
	}
	return r.active, nil
}

type fakeRoommateRepo struct {
	proposals map[string]*roommate.Proposal
	pool      map[shared.UserID][]shared.UserID
	updated   []string
}

func newFakeRoommateRepo() *fakeRoommateRepo {
	return &fakeRoommateRepo{
		proposals: make(map[string]*roommate.Proposal),
		pool:      make(map[shared.UserID][]shared.UserID),
	}
}

func (r *fakeRoommateRepo) CreateProposal(_ context.Context, p *roommate.Proposal) error {
	r.proposals[p.ID] = p
	return nil
}

func (r *fakeRoommateRepo) GetProposal(_ context.Context, id string) (*roommate.Proposal, error) {
	p, ok := r.proposals[id]
	if !ok {
		return nil, shared.ErrProposalNotFound
	}
	return p, nil
}

func (r *fakeRoommateRepo) UpdateProposal(_ context.Context, p *roommate.Proposal) error {
	r.proposals[p.ID] = p
	r.updated = append(r.updated, p.ID)
	return nil
}

func (r *fakeRoommateRepo) OpenProposalExists(context.Context, shared.UserID, shared.UserID) (bool, error) {
	return false, nil
}

func (r *fakeRoommateRepo) ListExpiredPending(_ context.Context, cutoff time.Time, limit int) ([]*roommate.Proposal, error) {
	var out []*roommate.Proposal
	for _, p := range r.proposals {
		if p.Status.IsPending() && p.ExpiresAt.Before(cutoff) {
			out = append(out, p)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRoommateRepo) CreateBlock(context.Context, *roommate.Block) error { return nil }

func (r *fakeRoommateRepo) ListCandidatePool(_ context.Context, requesterID shared.UserID) ([]shared.UserID, error) {
	return r.pool[requesterID], nil
}

type fakeCache struct {
	entries map[string]matching.Result
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]matching.Result)}
}

func (c *fakeCache) key(a, b shared.UserID, versionKey string) string {
	return string(a) + "|" + string(b) + "|" + versionKey
}

func (c *fakeCache) Get(_ context.Context, a, b shared.UserID, versionKey string) (*matching.Result, error) {
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

func profileWith(userID string, cleanliness int) *preference.Profile {
	return &preference.Profile{
		UserID: shared.UserID(userID),
		Lifestyle: &preference.LifestylePreferences{
			CleanlinessLevel: cleanliness,
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Expire proposals
// ─────────────────────────────────────────────────────────────────────────────

func TestExpireProposalsClosesOverdue(t *testing.T) {
	repo := newFakeRoommateRepo()
	overdue, err := roommate.NewProposal(roommate.NewProposalParams{
		ID:          shared.NewEntityID(),
		InitiatorID: shared.UserID(aliceID),
		CandidateID: shared.UserID(bobID),
		Score:       80,
	})
	require.NoError(t, err)
	overdue.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	repo.proposals[overdue.ID] = overdue

	fresh, err := roommate.NewProposal(roommate.NewProposalParams{
		ID:          shared.NewEntityID(),
		InitiatorID: shared.UserID(aliceID),
		CandidateID: shared.UserID(caraID),
		Score:       70,
	})
	require.NoError(t, err)
	repo.proposals[fresh.ID] = fresh

	bus := &fakeBus{}
	job := NewExpireProposalsJob(repo, bus, 100, nil)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, roommate.StatusExpired, repo.proposals[overdue.ID].Status)
	assert.Equal(t, roommate.StatusPending, repo.proposals[fresh.ID].Status)

	require.Len(t, bus.published, 1)
	assert.Equal(t, shared.EventProposalExpired, bus.published[0].EventType())
}

func TestExpireProposalsNoopWhenNothingOverdue(t *testing.T) {
	repo := newFakeRoommateRepo()
	bus := &fakeBus{}

	job := NewExpireProposalsJob(repo, bus, 100, nil)
	require.NoError(t, job.Run(context.Background()))

	assert.Empty(t, repo.updated)
	assert.Empty(t, bus.published)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cache warmup
// ─────────────────────────────────────────────────────────────────────────────

func warmupFixture() (*fakePrefRepo, *fakeRoommateRepo) {
	prefRepo := newFakePrefRepo()
	prefRepo.profiles[aliceID] = profileWith(aliceID, 5)
	prefRepo.profiles[bobID] = profileWith(bobID, 4)
	prefRepo.profiles[caraID] = profileWith(caraID, 1)
	prefRepo.active = []shared.UserID{aliceID}

	roommateRepo := newFakeRoommateRepo()
	roommateRepo.pool[aliceID] = []shared.UserID{bobID, caraID}
	return prefRepo, roommateRepo
}

func TestWarmupPrecomputesPairs(t *testing.T) {
	prefRepo, roommateRepo := warmupFixture()
	cache := newFakeCache()
	bus := &fakeBus{}

	job := NewWarmMatchCacheJob(prefRepo, roommateRepo, cache, bus, DefaultWarmMatchCacheConfig(), nil)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 2, cache.sets)

	require.Len(t, bus.published, 1)
	assert.Equal(t, shared.EventCacheWarmed, bus.published[0].EventType())

	// Warm entries match what the scorer would produce on demand.
	alice := prefRepo.profiles[aliceID]
	bob := prefRepo.profiles[bobID]
	versionKey := matching.CacheKey(alice.VersionHash(), bob.VersionHash(), preference.WeightSet(nil).Fingerprint())
	res, err := cache.Get(context.Background(), aliceID, bobID, versionKey)
	require.NoError(t, err)
	assert.Equal(t, matching.Score(alice, bob, nil).OverallScore, res.OverallScore)
}

func TestWarmupSkipsAlreadyWarmPairs(t *testing.T) {
	prefRepo, roommateRepo := warmupFixture()
	cache := newFakeCache()

	job := NewWarmMatchCacheJob(prefRepo, roommateRepo, cache, nil, DefaultWarmMatchCacheConfig(), nil)
	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 2, cache.sets)
}

func TestWarmupRespectsPairLimit(t *testing.T) {
	prefRepo, roommateRepo := warmupFixture()
	cache := newFakeCache()

	cfg := DefaultWarmMatchCacheConfig()
	cfg.PairLimit = 1
	job := NewWarmMatchCacheJob(prefRepo, roommateRepo, cache, nil, cfg, nil)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1, cache.sets)
}

func TestWarmupSkipsUsersWithoutPreferences(t *testing.T) {
	prefRepo := newFakePrefRepo()
	prefRepo.profiles[aliceID] = &preference.Profile{UserID: shared.UserID(aliceID)}
	prefRepo.active = []shared.UserID{aliceID}

	cache := newFakeCache()
	job := NewWarmMatchCacheJob(prefRepo, newFakeRoommateRepo(), cache, nil, DefaultWarmMatchCacheConfig(), nil)
	require.NoError(t, job.Run(context.Background()))

	assert.Zero(t, cache.sets)
}
