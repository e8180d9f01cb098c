package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/matching"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/preference"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COMPATIBILITY QUERY
// Парная совместимость двух пользователей с разбивкой по измерениям.
// Читает сквозь кеш: ключ включает хеши обеих анкет и отпечаток весов,
// поэтому устаревшее значение прочитать невозможно - изменился вход,
// изменился и ключ.
// ══════════════════════════════════════════════════════════════════════════════

// GetCompatibilityQuery содержит параметры запроса.
type GetCompatibilityQuery struct {
	// RequesterID - чьи веса применяются к агрегату.
	RequesterID string

	// CandidateID - второй участник пары.
	CandidateID string
}

// Validate проверяет корректность параметров.
func (q *GetCompatibilityQuery) Validate() error {
	if q.RequesterID == "" {
		return errors.New("requester_id is required")
	}
	if q.CandidateID == "" {
		return errors.New("candidate_id is required")
	}
	return nil
}

// CompatibilityResult содержит результат парной оценки.
type CompatibilityResult struct {
	// RequesterID и CandidateID - участники пары.
	RequesterID string `json:"requester_id"`
	CandidateID string `json:"candidate_id"`

	// Score - итоговая совместимость (0-100).
	Score int `json:"score"`

	// Quality - качественная полоса.
	Quality string `json:"quality"`

	// DimensionScores - разбивка по измерениям.
	DimensionScores map[string]float64 `json:"dimension_scores,omitempty"`

	// FromCache - пришёл ли результат из кеша.
	FromCache bool `json:"from_cache"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetCompatibilityHandler обрабатывает запросы парной совместимости.
type GetCompatibilityHandler struct {
	prefRepo   preference.Repository
	matchCache matching.Cache // optional, nil disables caching
	bus        shared.Publisher
}

// NewGetCompatibilityHandler создаёт новый обработчик.
func NewGetCompatibilityHandler(
	prefRepo preference.Repository,
	matchCache matching.Cache,
	bus shared.Publisher,
) *GetCompatibilityHandler {
	return &GetCompatibilityHandler{
		prefRepo:   prefRepo,
		matchCache: matchCache,
		bus:        bus,
	}
}

// Handle выполняет парную оценку.
func (h *GetCompatibilityHandler) Handle(ctx context.Context, query GetCompatibilityQuery) (*CompatibilityResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	requesterID, err := shared.NewUserID(query.RequesterID)
	if err != nil {
		return nil, err
	}
	candidateID, err := shared.NewUserID(query.CandidateID)
	if err != nil {
		return nil, err
	}

	requester, err := h.prefRepo.GetProfile(ctx, requesterID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrRequesterNoPreferences
		}
		return nil, fmt.Errorf("get_compatibility: load requester: %w", err)
	}
	if requester.IsEmpty() {
		return nil, shared.ErrRequesterNoPreferences
	}

	candidate, err := h.prefRepo.GetProfile(ctx, candidateID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("get_compatibility: load candidate: %w", err)
		}
		// Кандидат без анкеты оценивается как "нет применимых измерений".
		candidate = &preference.Profile{UserID: candidateID}
	}

	weights, err := h.prefRepo.GetWeights(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("get_compatibility: load weights: %w", err)
	}

	versionKey := matching.CacheKey(requester.VersionHash(), candidate.VersionHash(), weights.Fingerprint())

	if h.matchCache != nil {
		cached, err := h.matchCache.Get(ctx, requesterID, candidateID, versionKey)
		if err == nil && cached != nil {
			return h.toResult(query, *cached, true), nil
		}
		// Промах и ошибка кеша неразличимы для читателя: считаем заново.
	}

	res := matching.Score(requester, candidate, weights)
	res.CounterpartID = candidateID

	if h.matchCache != nil {
		_ = h.matchCache.Set(ctx, requesterID, candidateID, versionKey, res)
	}
	if h.bus != nil {
		_ = h.bus.Publish(ctx, shared.NewMatchComputedEvent(
			query.RequesterID, query.CandidateID, res.OverallScore.Int(),
		))
	}

	return h.toResult(query, res, false), nil
}

// toResult строит DTO из результата скорера.
func (h *GetCompatibilityHandler) toResult(query GetCompatibilityQuery, res matching.Result, fromCache bool) *CompatibilityResult {
	dims := make(map[string]float64, len(res.DimensionScores))
	for dim, v := range res.DimensionScores {
		dims[string(dim)] = v
	}
	return &CompatibilityResult{
		RequesterID:     query.RequesterID,
		CandidateID:     query.CandidateID,
		Score:           res.OverallScore.Int(),
		Quality:         string(res.Quality()),
		DimensionScores: dims,
		FromCache:       fromCache,
		GeneratedAt:     time.Now().UTC(),
	}
}
