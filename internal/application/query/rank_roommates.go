// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/matching"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/preference"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/roommate"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANK ROOMMATES QUERY
// КЛЮЧЕВОЙ запрос проекта: "кто мне больше всего подходит?".
// Собирает пул кандидатов (без заблокированных и уже съехавшихся),
// прогоняет скорер и возвращает отсортированный топ.
// ══════════════════════════════════════════════════════════════════════════════

// RankRoommatesQuery содержит параметры запроса ранжирования.
type RankRoommatesQuery struct {
	// RequesterID - пользователь, который ищет соседа.
	RequesterID string

	// Limit - максимальное количество результатов (0 = по умолчанию).
	Limit int
}

// Validate проверяет корректность параметров.
func (q *RankRoommatesQuery) Validate() error {
	if q.RequesterID == "" {
		return errors.New("requester_id is required")
	}
	if q.Limit < 0 {
		return shared.ErrInvalidLimit
	}
	return nil
}

// MatchDTO - одна строка выдачи ранжирования.
type MatchDTO struct {
	// Rank - позиция в выдаче, начиная с 1.
	Rank int `json:"rank"`

	// UserID - ID кандидата.
	UserID string `json:"user_id"`

	// Score - итоговая совместимость (0-100).
	Score int `json:"score"`

	// Quality - качественная полоса: excellent/good/fair/poor/none.
	Quality string `json:"quality"`

	// DimensionScores - разбивка по измерениям (проценты, без округления).
	DimensionScores map[string]float64 `json:"dimension_scores,omitempty"`
}

// RankRoommatesResult содержит результат ранжирования.
type RankRoommatesResult struct {
	// RequesterID - для кого строилась выдача.
	RequesterID string `json:"requester_id"`

	// Matches - отсортированный топ кандидатов.
	Matches []MatchDTO `json:"matches"`

	// PoolSize - размер пула до оценки и усечения.
	PoolSize int `json:"pool_size"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// RankRoommatesHandler обрабатывает запросы ранжирования.
type RankRoommatesHandler struct {
	prefRepo     preference.Repository
	roommateRepo roommate.Repository
	bus          shared.Publisher
}

// NewRankRoommatesHandler создаёт новый обработчик.
func NewRankRoommatesHandler(
	prefRepo preference.Repository,
	roommateRepo roommate.Repository,
	bus shared.Publisher,
) *RankRoommatesHandler {
	return &RankRoommatesHandler{
		prefRepo:     prefRepo,
		roommateRepo: roommateRepo,
		bus:          bus,
	}
}

// Handle выполняет ранжирование кандидатов.
func (h *RankRoommatesHandler) Handle(ctx context.Context, query RankRoommatesQuery) (*RankRoommatesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	requesterID, err := shared.NewUserID(query.RequesterID)
	if err != nil {
		return nil, err
	}

	// Незаполненная анкета - это отдельное состояние "сначала ответь на
	// вопросы", а не пустая выдача.
	requester, err := h.prefRepo.GetProfile(ctx, requesterID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrRequesterNoPreferences
		}
		return nil, fmt.Errorf("rank_roommates: load requester: %w", err)
	}

	weights, err := h.prefRepo.GetWeights(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("rank_roommates: load weights: %w", err)
	}

	poolIDs, err := h.roommateRepo.ListCandidatePool(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("rank_roommates: load pool: %w", err)
	}

	profiles, err := h.prefRepo.GetProfiles(ctx, poolIDs)
	if err != nil {
		return nil, fmt.Errorf("rank_roommates: load profiles: %w", err)
	}

	candidates := make([]matching.Candidate, 0, len(poolIDs))
	for _, id := range poolIDs {
		if profile, ok := profiles[id]; ok {
			candidates = append(candidates, matching.Candidate{UserID: id, Profile: profile})
		}
	}

	results, err := matching.Rank(matching.RankRequest{
		Requester:  requester,
		Weights:    weights,
		Candidates: candidates,
		Limit:      query.Limit,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]MatchDTO, 0, len(results))
	for i, res := range results {
		matches = append(matches, toMatchDTO(i+1, res))
	}

	if h.bus != nil {
		_ = h.bus.Publish(ctx, shared.NewPoolRankedEvent(query.RequesterID, len(candidates), len(matches)))
	}

	return &RankRoommatesResult{
		RequesterID: query.RequesterID,
		Matches:     matches,
		PoolSize:    len(candidates),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// toMatchDTO строит строку выдачи из результата скорера.
func toMatchDTO(rank int, res matching.Result) MatchDTO {
	dims := make(map[string]float64, len(res.DimensionScores))
	for dim, v := range res.DimensionScores {
		dims[string(dim)] = v
	}
	return MatchDTO{
		Rank:            rank,
		UserID:          string(res.CounterpartID),
		Score:           res.OverallScore.Int(),
		Quality:         string(res.Quality()),
		DimensionScores: dims,
	}
}
