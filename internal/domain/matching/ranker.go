package matching

import (
	"sort"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/preference"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CANDIDATE RANKER
//
// Прогоняет скорер по пулу кандидатов и возвращает отсортированный,
// усечённый список. Гарантии:
//   - вход никогда не мутируется;
//   - порядок детерминирован: по убыванию оценки, при равенстве -
//     по возрастанию ID кандидата;
//   - префиксная согласованность: top-k от запроса на N совпадает с
//     результатом запроса на k при k ≤ N.
// ══════════════════════════════════════════════════════════════════════════════

// Ranker limits.
const (
	// DefaultLimit applies when the caller does not specify one.
	DefaultLimit = 10

	// MaxLimit caps any single ranking request.
	MaxLimit = 50
)

// Candidate pairs a pool member with their preference snapshot.
type Candidate struct {
	// UserID is the candidate's ID.
	UserID shared.UserID

	// Profile is the candidate's preference snapshot.
	Profile *preference.Profile
}

// RankRequest describes one ranking run.
type RankRequest struct {
	// Requester is the requesting user's snapshot.
	Requester *preference.Profile

	// Weights are the requester's importance multipliers (nil = unweighted).
	Weights preference.WeightSet

	// Candidates is the pool, already stripped of the requester and of
	// excluded relations by the caller.
	Candidates []Candidate

	// Limit caps the result size (0 = DefaultLimit).
	Limit int
}

// Rank scores every candidate and returns the top results.
//
// A requester with no recorded preferences at all is a distinct
// "prerequisite not met" condition, not an empty result: the caller is
// expected to send the user to the questionnaire instead of silently
// showing nothing. An empty pool, by contrast, is a normal empty list.
func Rank(req RankRequest) ([]Result, error) {
	if req.Requester.IsEmpty() {
		return nil, shared.ErrRequesterNoPreferences
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	results := make([]Result, 0, len(req.Candidates))
	for _, cand := range req.Candidates {
		if cand.Profile.IsEmpty() {
			// Candidates without a questionnaire cannot be scored.
			continue
		}
		res := Score(req.Requester, cand.Profile, req.Weights)
		res.CounterpartID = cand.UserID
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].OverallScore != results[j].OverallScore {
			return results[i].OverallScore > results[j].OverallScore
		}
		return results[i].CounterpartID < results[j].CounterpartID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
