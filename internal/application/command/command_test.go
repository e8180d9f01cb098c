package command

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
	aliceID = "2e9b1c1a-0000-4000-8000-00000000000a"
	bobID   = "2e9b1c1a-0000-4000-8000-00000000000b"
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
	ids := make([]shared.UserID, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeRoommateRepo struct {
	proposals map[string]*roommate.Proposal
	blocks    []*roommate.Block
}

func newFakeRoommateRepo() *fakeRoommateRepo {
	return &fakeRoommateRepo{proposals: make(map[string]*roommate.Proposal)}
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
	return nil
}

func (r *fakeRoommateRepo) OpenProposalExists(_ context.Context, a, b shared.UserID) (bool, error) {
	for _, p := range r.proposals {
		if p.Status.IsPending() && p.Involves(a) && p.Involves(b) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRoommateRepo) ListExpiredPending(_ context.Context, cutoff time.Time, limit int) ([]*roommate.Proposal, error) {
	out := make([]*roommate.Proposal, 0)
	for _, p := range r.proposals {
		if p.Status.IsPending() && p.ExpiresAt.Before(cutoff) {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRoommateRepo) CreateBlock(_ context.Context, b *roommate.Block) error {
	r.blocks = append(r.blocks, b)
	return nil
}

func (r *fakeRoommateRepo) ListCandidatePool(_ context.Context, _ shared.UserID) ([]shared.UserID, error) {
	return nil, nil
}

type fakeCache struct {
	entries     map[string]matching.Result
	invalidated []shared.UserID
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
	c.entries[c.key(a, b, versionKey)] = res
	return nil
}

func (c *fakeCache) InvalidateUser(_ context.Context, userID shared.UserID) error {
	c.invalidated = append(c.invalidated, userID)
	return nil
}

type fakeBus struct {
	published []shared.Event
}

func (b *fakeBus) Publish(_ context.Context, event shared.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *fakeBus) types() []shared.EventType {
	out := make([]shared.EventType, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventType())
	}
	return out
}

func housingFixture() *preference.HousingPreferences {
	return &preference.HousingPreferences{
		BudgetMin:   400,
		BudgetMax:   700,
		MoveInDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		MaxDistance: preference.DistanceUnder30Min,
	}
}

func lifestyleFixture() *preference.LifestylePreferences {
	return &preference.LifestylePreferences{
		CleanlinessLevel: 4,
		NoiseTolerance:   preference.NoiseModerate,
		SleepSchedule:    preference.SleepEarly,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdatePreferences
// ─────────────────────────────────────────────────────────────────────────────

func TestUpdatePreferencesCreatesProfile(t *testing.T) {
	repo := newFakePrefRepo()
	cache := newFakeCache()
	bus := &fakeBus{}
	handler := NewUpdatePreferencesHandler(repo, cache, bus)

	res, err := handler.Handle(context.Background(), UpdatePreferencesCommand{
		UserID:  aliceID,
		Housing: housingFixture(),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"housing"}, res.ChangedSections)
	assert.NotEmpty(t, res.VersionHash)

	stored, err := repo.GetProfile(context.Background(), shared.UserID(aliceID))
	require.NoError(t, err)
	assert.Equal(t, shared.Money(700), stored.Housing.BudgetMax)
	assert.Nil(t, stored.Lifestyle)

	assert.Equal(t, []shared.UserID{shared.UserID(aliceID)}, cache.invalidated)
	assert.Equal(t, []shared.EventType{shared.EventPreferencesUpdated}, bus.types())
}

func TestUpdatePreferencesSectionUpsert(t *testing.T) {
	repo := newFakePrefRepo()
	handler := NewUpdatePreferencesHandler(repo, nil, nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, UpdatePreferencesCommand{UserID: aliceID, Housing: housingFixture()})
	require.NoError(t, err)

	// Writing lifestyle must not clobber the stored housing section.
	_, err = handler.Handle(ctx, UpdatePreferencesCommand{UserID: aliceID, Lifestyle: lifestyleFixture()})
	require.NoError(t, err)

	stored, err := repo.GetProfile(ctx, shared.UserID(aliceID))
	require.NoError(t, err)
	assert.NotNil(t, stored.Housing)
	assert.NotNil(t, stored.Lifestyle)
}

func TestUpdatePreferencesIdempotentResubmit(t *testing.T) {
	repo := newFakePrefRepo()
	cache := newFakeCache()
	bus := &fakeBus{}
	handler := NewUpdatePreferencesHandler(repo, cache, bus)
	ctx := context.Background()

	first, err := handler.Handle(ctx, UpdatePreferencesCommand{UserID: aliceID, Housing: housingFixture()})
	require.NoError(t, err)

	second, err := handler.Handle(ctx, UpdatePreferencesCommand{UserID: aliceID, Housing: housingFixture()})
	require.NoError(t, err)

	assert.Equal(t, first.VersionHash, second.VersionHash)
	assert.Empty(t, second.ChangedSections)
	// Only the first write evicts and publishes.
	assert.Len(t, cache.invalidated, 1)
	assert.Len(t, bus.published, 1)
}

func TestUpdatePreferencesRejectsInvalidAnswers(t *testing.T) {
	handler := NewUpdatePreferencesHandler(newFakePrefRepo(), nil, nil)

	_, err := handler.Handle(context.Background(), UpdatePreferencesCommand{
		UserID: aliceID,
		Housing: &preference.HousingPreferences{
			BudgetMin: 900,
			BudgetMax: 400,
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)
}

func TestUpdatePreferencesRequiresSection(t *testing.T) {
	handler := NewUpdatePreferencesHandler(newFakePrefRepo(), nil, nil)

	_, err := handler.Handle(context.Background(), UpdatePreferencesCommand{UserID: aliceID})

	assert.ErrorIs(t, err, shared.ErrValidation)
}

// ─────────────────────────────────────────────────────────────────────────────
// SetWeights
// ─────────────────────────────────────────────────────────────────────────────

func TestSetWeightsStoresAndEvicts(t *testing.T) {
	repo := newFakePrefRepo()
	cache := newFakeCache()
	bus := &fakeBus{}
	handler := NewSetWeightsHandler(repo, cache, bus)

	res, err := handler.Handle(context.Background(), SetWeightsCommand{
		UserID:  aliceID,
		Weights: map[string]int{"budget": 5, "pets": 1},
	})

	require.NoError(t, err)
	assert.Equal(t, "budget=5,pets=1", res.Fingerprint)

	stored, err := repo.GetWeights(context.Background(), shared.UserID(aliceID))
	require.NoError(t, err)
	assert.Equal(t, preference.Weight(5), stored.For(preference.DimBudget))
	assert.Equal(t, preference.DefaultWeight, stored.For(preference.DimCleanliness))

	assert.Equal(t, []shared.UserID{shared.UserID(aliceID)}, cache.invalidated)
	assert.Equal(t, []shared.EventType{shared.EventWeightsUpdated}, bus.types())
}

func TestSetWeightsRejectsUnknownDimension(t *testing.T) {
	handler := NewSetWeightsHandler(newFakePrefRepo(), nil, nil)

	_, err := handler.Handle(context.Background(), SetWeightsCommand{
		UserID:  aliceID,
		Weights: map[string]int{"astrology": 5},
	})

	assert.ErrorIs(t, err, shared.ErrUnknownDimension)
}

func TestSetWeightsRejectsOutOfScaleWeight(t *testing.T) {
	handler := NewSetWeightsHandler(newFakePrefRepo(), nil, nil)

	_, err := handler.Handle(context.Background(), SetWeightsCommand{
		UserID:  aliceID,
		Weights: map[string]int{"budget": 9},
	})

	assert.ErrorIs(t, err, shared.ErrInvalidWeight)
}

// ─────────────────────────────────────────────────────────────────────────────
// ProposeRoommate
// ─────────────────────────────────────────────────────────────────────────────

func seedProfiles(t *testing.T, repo *fakePrefRepo) {
	t.Helper()
	for _, id := range []string{aliceID, bobID} {
		repo.profiles[shared.UserID(id)] = &preference.Profile{
			UserID:    shared.UserID(id),
			Housing:   housingFixture(),
			Lifestyle: lifestyleFixture(),
		}
	}
}

func TestProposeRoommateCreatesProposal(t *testing.T) {
	prefRepo := newFakePrefRepo()
	seedProfiles(t, prefRepo)
	roomRepo := newFakeRoommateRepo()
	bus := &fakeBus{}
	handler := NewProposeRoommateHandler(roomRepo, prefRepo, bus)

	res, err := handler.Handle(context.Background(), ProposeRoommateCommand{
		InitiatorID: aliceID,
		CandidateID: bobID,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, res.ProposalID)
	// Identical fixtures score as a perfect match.
	assert.Equal(t, 100, res.Score)

	stored, err := roomRepo.GetProposal(context.Background(), res.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, roommate.StatusPending, stored.Status)
	assert.Equal(t, []shared.EventType{shared.EventProposalCreated}, bus.types())
}

func TestProposeRoommateRejectsDuplicate(t *testing.T) {
	prefRepo := newFakePrefRepo()
	seedProfiles(t, prefRepo)
	roomRepo := newFakeRoommateRepo()
	handler := NewProposeRoommateHandler(roomRepo, prefRepo, nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, ProposeRoommateCommand{InitiatorID: aliceID, CandidateID: bobID})
	require.NoError(t, err)

	// Same pair, reversed direction.
	_, err = handler.Handle(ctx, ProposeRoommateCommand{InitiatorID: bobID, CandidateID: aliceID})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestProposeRoommateRejectsSelf(t *testing.T) {
	handler := NewProposeRoommateHandler(newFakeRoommateRepo(), newFakePrefRepo(), nil)

	_, err := handler.Handle(context.Background(), ProposeRoommateCommand{
		InitiatorID: aliceID,
		CandidateID: aliceID,
	})

	assert.ErrorIs(t, err, shared.ErrSelfProposal)
}

func TestProposeRoommateRequiresInitiatorPreferences(t *testing.T) {
	prefRepo := newFakePrefRepo()
	prefRepo.profiles[shared.UserID(bobID)] = &preference.Profile{
		UserID:  shared.UserID(bobID),
		Housing: housingFixture(),
	}
	handler := NewProposeRoommateHandler(newFakeRoommateRepo(), prefRepo, nil)

	_, err := handler.Handle(context.Background(), ProposeRoommateCommand{
		InitiatorID: aliceID,
		CandidateID: bobID,
	})

	assert.ErrorIs(t, err, shared.ErrMissingPrerequisite)
}

// ─────────────────────────────────────────────────────────────────────────────
// RespondProposal
// ─────────────────────────────────────────────────────────────────────────────

func createProposal(t *testing.T, roomRepo *fakeRoommateRepo) string {
	t.Helper()
	prefRepo := newFakePrefRepo()
	seedProfiles(t, prefRepo)
	handler := NewProposeRoommateHandler(roomRepo, prefRepo, nil)
	res, err := handler.Handle(context.Background(), ProposeRoommateCommand{
		InitiatorID: aliceID,
		CandidateID: bobID,
	})
	require.NoError(t, err)
	return res.ProposalID
}

func TestRespondProposalMutualAccept(t *testing.T) {
	roomRepo := newFakeRoommateRepo()
	proposalID := createProposal(t, roomRepo)
	bus := &fakeBus{}
	handler := NewRespondProposalHandler(roomRepo, bus)
	ctx := context.Background()

	res, err := handler.Handle(ctx, RespondProposalCommand{
		ProposalID: proposalID, UserID: aliceID, Response: ResponseAccept,
	})
	require.NoError(t, err)
	assert.False(t, res.MutuallyAccepted)

	res, err = handler.Handle(ctx, RespondProposalCommand{
		ProposalID: proposalID, UserID: bobID, Response: ResponseAccept,
	})
	require.NoError(t, err)
	assert.True(t, res.MutuallyAccepted)
	assert.Equal(t, roommate.StatusMutuallyAccepted, res.Status)
	assert.NotNil(t, res.RespondedAt)
	assert.Len(t, bus.published, 2)
}

func TestRespondProposalDecline(t *testing.T) {
	roomRepo := newFakeRoommateRepo()
	proposalID := createProposal(t, roomRepo)
	handler := NewRespondProposalHandler(roomRepo, nil)

	res, err := handler.Handle(context.Background(), RespondProposalCommand{
		ProposalID: proposalID, UserID: bobID, Response: ResponseDecline, Reason: "different campus",
	})

	require.NoError(t, err)
	assert.Equal(t, roommate.StatusDeclined, res.Status)

	stored, err := roomRepo.GetProposal(context.Background(), proposalID)
	require.NoError(t, err)
	assert.Equal(t, "different campus", stored.DeclineReason)
}

func TestRespondProposalUnknownID(t *testing.T) {
	handler := NewRespondProposalHandler(newFakeRoommateRepo(), nil)

	_, err := handler.Handle(context.Background(), RespondProposalCommand{
		ProposalID: "nope", UserID: aliceID, Response: ResponseAccept,
	})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRespondProposalPersistsExpiry(t *testing.T) {
	roomRepo := newFakeRoommateRepo()
	proposalID := createProposal(t, roomRepo)
	roomRepo.proposals[proposalID].ExpiresAt = time.Now().Add(-time.Hour)
	handler := NewRespondProposalHandler(roomRepo, nil)

	_, err := handler.Handle(context.Background(), RespondProposalCommand{
		ProposalID: proposalID, UserID: bobID, Response: ResponseAccept,
	})

	assert.ErrorIs(t, err, shared.ErrExpired)
	assert.Equal(t, roommate.StatusExpired, roomRepo.proposals[proposalID].Status)
}

// ─────────────────────────────────────────────────────────────────────────────
// BlockUser
// ─────────────────────────────────────────────────────────────────────────────

func TestBlockUser(t *testing.T) {
	roomRepo := newFakeRoommateRepo()
	bus := &fakeBus{}
	handler := NewBlockUserHandler(roomRepo, bus)

	res, err := handler.Handle(context.Background(), BlockUserCommand{
		BlockerID: aliceID,
		BlockedID: bobID,
	})

	require.NoError(t, err)
	assert.Equal(t, aliceID, res.BlockerID)
	require.Len(t, roomRepo.blocks, 1)
	assert.Equal(t, []shared.EventType{shared.EventUserBlocked}, bus.types())
}

func TestBlockUserRejectsSelf(t *testing.T) {
	handler := NewBlockUserHandler(newFakeRoommateRepo(), nil)

	_, err := handler.Handle(context.Background(), BlockUserCommand{
		BlockerID: aliceID,
		BlockedID: aliceID,
	})

	assert.Error(t, err)
}
