package matching

import (
	"math"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/preference"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPATIBILITY SCORER
//
// Философия подбора: анкета важнее интуиции. Совместимость пары - это
// чистая функция двух снимков предпочтений (плюс необязательные веса):
// никакого скрытого состояния, никакой зависимости от времени вызова.
// Один и тот же вход всегда даёт байт-в-байт одинаковый результат -
// на этом держится корректность кеша.
//
// Формула: Σ(score·weight) / Σweight × 100. Вес по умолчанию (3)
// гарантирует, что взвешенный режим без явных весов вырождается в
// простое среднее.
// ══════════════════════════════════════════════════════════════════════════════

// Result is a transient computed compatibility value. It is never
// authoritative state: the cache may hold a copy, but recomputation from
// the same snapshots always reproduces it exactly.
type Result struct {
	// CounterpartID is the other user in the pair.
	CounterpartID shared.UserID `json:"counterpart_user_id"`

	// OverallScore is the aggregate percentage, rounded and clamped
	// to 0-100.
	OverallScore shared.Score `json:"overall_score"`

	// DimensionScores carries the unrounded per-dimension percentages
	// for transparency and debugging. Only applicable dimensions appear.
	DimensionScores map[preference.Dimension]float64 `json:"dimension_scores"`
}

// Quality returns the qualitative band for the overall score.
func (r Result) Quality() Quality {
	return QualityFor(r.OverallScore)
}

// Quality is a human-readable compatibility band.
type Quality string

const (
	// QualityExcellent - отличная совместимость (80-100).
	QualityExcellent Quality = "excellent"

	// QualityGood - хорошая совместимость (60-79).
	QualityGood Quality = "good"

	// QualityFair - удовлетворительная совместимость (40-59).
	QualityFair Quality = "fair"

	// QualityPoor - низкая совместимость (20-39).
	QualityPoor Quality = "poor"

	// QualityNone - нет совместимости (0-19).
	QualityNone Quality = "none"
)

// QualityFor maps a score to its band.
func QualityFor(s shared.Score) Quality {
	switch {
	case s >= 80:
		return QualityExcellent
	case s >= 60:
		return QualityGood
	case s >= 40:
		return QualityFair
	case s >= 20:
		return QualityPoor
	default:
		return QualityNone
	}
}

// Score computes the compatibility of two preference snapshots.
//
// weights are the requester's importance multipliers; pass nil for the
// unweighted mode (every dimension then carries DefaultWeight, which is
// arithmetically identical to a plain mean). Dimensions either side left
// unanswered are omitted from the aggregate, never penalized. The
// function is total over validated input and symmetric in the snapshots.
func Score(a, b *preference.Profile, weights preference.WeightSet) Result {
	res := Result{
		DimensionScores: make(map[preference.Dimension]float64),
	}
	if b != nil {
		res.CounterpartID = b.UserID
	}

	normalized := normalizePair(a, b)

	var weightedSum, weightSum float64
	for dim, value := range normalized {
		w := float64(weights.For(dim).Int())
		weightedSum += value * w
		weightSum += w
		res.DimensionScores[dim] = value * 100
	}

	if weightSum == 0 {
		// No dimension applicable: nothing to say about the pair.
		res.OverallScore = 0
		return res
	}

	overall := weightedSum / weightSum * 100
	res.OverallScore = shared.Score(math.Round(overall)).Clamp()
	return res
}
