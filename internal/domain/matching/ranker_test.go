package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/preference"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

func cleanlinessProfile(id string, level int) *preference.Profile {
	return &preference.Profile{
		UserID:    shared.UserID(id),
		Lifestyle: &preference.LifestylePreferences{CleanlinessLevel: level},
	}
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	requester := cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000000", 5)

	req := RankRequest{
		Requester: requester,
		Candidates: []Candidate{
			{UserID: "2e9b1c1a-0000-4000-8000-000000000001", Profile: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000001", 1)},
			{UserID: "2e9b1c1a-0000-4000-8000-000000000002", Profile: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000002", 5)},
			{UserID: "2e9b1c1a-0000-4000-8000-000000000003", Profile: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000003", 3)},
		},
		Limit: 10,
	}

	results, err := Rank(req)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, shared.UserID("2e9b1c1a-0000-4000-8000-000000000002"), results[0].CounterpartID)
	assert.Equal(t, shared.Score(100), results[0].OverallScore)
	assert.Equal(t, shared.UserID("2e9b1c1a-0000-4000-8000-000000000003"), results[1].CounterpartID)
	assert.Equal(t, shared.UserID("2e9b1c1a-0000-4000-8000-000000000001"), results[2].CounterpartID)
}

func TestRankTieBreaksByAscendingID(t *testing.T) {
	requester := cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000000", 4)

	// All candidates score identically; order must follow IDs.
	req := RankRequest{
		Requester: requester,
		Candidates: []Candidate{
			{UserID: "2e9b1c1a-0000-4000-8000-000000000003", Profile: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000003", 4)},
			{UserID: "2e9b1c1a-0000-4000-8000-000000000001", Profile: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000001", 4)},
			{UserID: "2e9b1c1a-0000-4000-8000-000000000002", Profile: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000002", 4)},
		},
		Limit: 10,
	}

	results, err := Rank(req)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, shared.UserID("2e9b1c1a-0000-4000-8000-000000000001"), results[0].CounterpartID)
	assert.Equal(t, shared.UserID("2e9b1c1a-0000-4000-8000-000000000002"), results[1].CounterpartID)
	assert.Equal(t, shared.UserID("2e9b1c1a-0000-4000-8000-000000000003"), results[2].CounterpartID)
}

func TestRankPrefixConsistency(t *testing.T) {
	requester := cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000000", 5)

	candidates := make([]Candidate, 0, 8)
	levels := []int{1, 5, 3, 2, 4, 5, 1, 3}
	for i, level := range levels {
		id := shared.UserID("2e9b1c1a-0000-4000-8000-00000000001" + string(rune('0'+i)))
		candidates = append(candidates, Candidate{
			UserID:  id,
			Profile: cleanlinessProfile(id.String(), level),
		})
	}

	full, err := Rank(RankRequest{Requester: requester, Candidates: candidates, Limit: 8})
	require.NoError(t, err)

	for k := 1; k <= len(full); k++ {
		prefix, err := Rank(RankRequest{Requester: requester, Candidates: candidates, Limit: k})
		require.NoError(t, err)
		assert.Equal(t, full[:k], prefix, "top-%d must be a prefix of the full ranking", k)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	requester := fullProfile("2e9b1c1a-0000-4000-8000-000000000000")
	candidates := []Candidate{
		{UserID: "2e9b1c1a-0000-4000-8000-000000000001", Profile: fullProfile("2e9b1c1a-0000-4000-8000-000000000001")},
		{UserID: "2e9b1c1a-0000-4000-8000-000000000002", Profile: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000002", 2)},
	}

	first, err := Rank(RankRequest{Requester: requester, Candidates: candidates, Limit: 5})
	require.NoError(t, err)
	second, err := Rank(RankRequest{Requester: requester, Candidates: candidates, Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRankRequesterWithoutPreferences(t *testing.T) {
	_, err := Rank(RankRequest{
		Requester: &preference.Profile{UserID: "2e9b1c1a-0000-4000-8000-000000000000"},
		Candidates: []Candidate{
			{UserID: "2e9b1c1a-0000-4000-8000-000000000001", Profile: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000001", 3)},
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrMissingPrerequisite)
}

func TestRankEmptyPoolIsNormalResult(t *testing.T) {
	results, err := Rank(RankRequest{
		Requester: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000000", 3),
	})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRankSkipsCandidatesWithoutPreferences(t *testing.T) {
	results, err := Rank(RankRequest{
		Requester: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000000", 3),
		Candidates: []Candidate{
			{UserID: "2e9b1c1a-0000-4000-8000-000000000001"},
			{UserID: "2e9b1c1a-0000-4000-8000-000000000002", Profile: cleanlinessProfile("2e9b1c1a-0000-4000-8000-000000000002", 3)},
		},
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, shared.UserID("2e9b1c1a-0000-4000-8000-000000000002"), results[0].CounterpartID)
}

func TestRankNeverMutatesInput(t *testing.T) {
	requester := fullProfile("2e9b1c1a-0000-4000-8000-000000000000")
	candidate := fullProfile("2e9b1c1a-0000-4000-8000-000000000001")
	budgetBefore := candidate.Housing.BudgetMax

	_, err := Rank(RankRequest{
		Requester:  requester,
		Candidates: []Candidate{{UserID: candidate.UserID, Profile: candidate}},
		Limit:      1,
	})

	require.NoError(t, err)
	assert.Equal(t, budgetBefore, candidate.Housing.BudgetMax)
}
