package matching

import (
	"github.com/nestmate-hub/nestmate-hub/internal/domain/preference"
	"github.com/nestmate-hub/nestmate-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTRIBUTE NORMALIZER
//
// Каждая функция приводит одно поле анкеты к симметричной оценке
// схожести в [0,1] для пары пользователей:
//   - числовые диапазоны (бюджет) - пересечение / объединение;
//   - упорядоченные шкалы (чистоплотность, шум, гости) - линейное
//     расстояние по индексам;
//   - множества (аллергии, сроки аренды, курение) - коэффициент Жаккара;
//   - перечисления (режим сна) - явная симметричная таблица;
//   - питомцы - жёсткое правило, а не непрерывная смесь.
//
// Все функции чистые, детерминированные и тотальные: для валидного
// входа они никогда не паникуют и не возвращают ошибку. Пропущенный
// ответ с любой стороны делает измерение неприменимым - оно опускается
// из среднего, а не штрафуется.
// ══════════════════════════════════════════════════════════════════════════════

// normalized holds the applicable per-dimension similarities for a pair,
// each in [0,1].
type normalized map[preference.Dimension]float64

// normalizePair computes every applicable dimension similarity for the
// two snapshots. The result is symmetric: normalizePair(a,b) equals
// normalizePair(b,a) for all valid inputs.
func normalizePair(a, b *preference.Profile) normalized {
	scores := make(normalized)

	normalizeHousing(scores, housingOf(a), housingOf(b))
	normalizeLifestyle(scores, lifestyleOf(a), lifestyleOf(b))

	return scores
}

func housingOf(p *preference.Profile) *preference.HousingPreferences {
	if p == nil {
		return nil
	}
	return p.Housing
}

func lifestyleOf(p *preference.Profile) *preference.LifestylePreferences {
	if p == nil {
		return nil
	}
	return p.Lifestyle
}

// ─────────────────────────────────────────────────────────────────────────────
// Housing dimensions
// ─────────────────────────────────────────────────────────────────────────────

func normalizeHousing(scores normalized, a, b *preference.HousingPreferences) {
	if a == nil || b == nil {
		return
	}

	if a.HasBudget() && b.HasBudget() {
		scores[preference.DimBudget] = rangeOverlap(
			a.BudgetMin.Int(), a.BudgetMax.Int(),
			b.BudgetMin.Int(), b.BudgetMax.Int(),
		)
	}

	if !a.MoveInDate.IsZero() && !b.MoveInDate.IsZero() {
		scores[preference.DimMoveInDate] = moveInProximity(timeutil.DaysBetween(a.MoveInDate, b.MoveInDate))
	}

	if len(a.LeaseLengths) > 0 && len(b.LeaseLengths) > 0 {
		scores[preference.DimLeaseLength] = leaseSimilarity(a.LeaseLengths, b.LeaseLengths)
	}

	if a.MaxDistance != "" && b.MaxDistance != "" {
		scores[preference.DimMaxDistance] = distanceSimilarity(a.MaxDistance, b.MaxDistance)
	}

	if a.QuietHours != nil && b.QuietHours != nil {
		scores[preference.DimQuietHours] = timeutil.OverlapFraction(
			timeutil.Interval{Start: a.QuietHours.Start.Minutes(), End: a.QuietHours.End.Minutes()},
			timeutil.Interval{Start: b.QuietHours.Start.Minutes(), End: b.QuietHours.End.Minutes()},
		)
	}
}

// rangeOverlap is intersection length over union length for two closed
// ranges. Disjoint ranges score 0, identical ranges score 1. Two equal
// degenerate points have a zero-width union and are defined as 1.
func rangeOverlap(aMin, aMax, bMin, bMax int) float64 {
	lo := maxInt(aMin, bMin)
	hi := minInt(aMax, bMax)

	unionLo := minInt(aMin, bMin)
	unionHi := maxInt(aMax, bMax)
	union := unionHi - unionLo

	if union == 0 {
		// Both ranges collapse to the same point.
		return 1
	}
	if hi < lo {
		return 0
	}
	return float64(hi-lo) / float64(union)
}

// moveInWindowDays is the gap at which move-in dates stop mattering:
// a quarter apart or more scores zero.
const moveInWindowDays = 90

func moveInProximity(daysApart int) float64 {
	if daysApart >= moveInWindowDays {
		return 0
	}
	return 1 - float64(daysApart)/float64(moveInWindowDays)
}

// leaseSimilarity is Jaccard over the lease-term sets, with the
// "flexible" sentinel on either side short-circuiting to 1.
func leaseSimilarity(a, b []preference.LeaseLength) float64 {
	for _, l := range a {
		if l == preference.LeaseFlexible {
			return 1
		}
	}
	for _, l := range b {
		if l == preference.LeaseFlexible {
			return 1
		}
	}

	as := make([]string, len(a))
	for i, l := range a {
		as[i] = string(l)
	}
	bs := make([]string, len(b))
	for i, l := range b {
		bs[i] = string(l)
	}
	return jaccard(as, bs)
}

// distanceSimilarity treats the buckets as an ordered scale, with the
// "any" sentinel on either side short-circuiting to 1.
func distanceSimilarity(a, b preference.DistanceBucket) float64 {
	if a == preference.DistanceAny || b == preference.DistanceAny {
		return 1
	}
	return ordinalSimilarity(a.Ordinal(), b.Ordinal(), preference.DistanceUnder30Min.Ordinal())
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifestyle dimensions
// ─────────────────────────────────────────────────────────────────────────────

func normalizeLifestyle(scores normalized, a, b *preference.LifestylePreferences) {
	if a == nil || b == nil {
		return
	}

	if a.CleanlinessLevel != 0 && b.CleanlinessLevel != 0 {
		scores[preference.DimCleanliness] = ordinalSimilarity(
			a.CleanlinessLevel, b.CleanlinessLevel,
			preference.CleanlinessMax-preference.CleanlinessMin,
		)
	}

	if a.NoiseTolerance != "" && b.NoiseTolerance != "" {
		scores[preference.DimNoiseTolerance] = ordinalSimilarity(
			a.NoiseTolerance.Ordinal(), b.NoiseTolerance.Ordinal(),
			preference.NoiseLoud.Ordinal(),
		)
	}

	if a.SleepSchedule != "" && b.SleepSchedule != "" {
		scores[preference.DimSleepSchedule] = sleepSimilarity(a.SleepSchedule, b.SleepSchedule)
	}

	if a.PetsStance != "" && b.PetsStance != "" {
		scores[preference.DimPets] = petsCompatibility(a, b)

		// Allergies only matter once both sides answered the pet block.
		scores[preference.DimPetAllergies] = jaccard(a.PetAllergies, b.PetAllergies)
	}

	if len(a.SmokingPolicy) > 0 && len(b.SmokingPolicy) > 0 {
		scores[preference.DimSmoking] = smokingSimilarity(a.SmokingPolicy, b.SmokingPolicy)
	}

	if a.ChoresPreference != "" && b.ChoresPreference != "" {
		scores[preference.DimChores] = choresSimilarity(a.ChoresPreference, b.ChoresPreference)
	}

	if a.GuestsFrequency != "" && b.GuestsFrequency != "" {
		scores[preference.DimGuests] = ordinalSimilarity(
			a.GuestsFrequency.Ordinal(), b.GuestsFrequency.Ordinal(),
			preference.GuestsOften.Ordinal(),
		)
	}

	if a.WorkFromHomeDays != nil && b.WorkFromHomeDays != nil {
		scores[preference.DimWorkFromHome] = ordinalSimilarity(*a.WorkFromHomeDays, *b.WorkFromHomeDays, 7)
	}
}

// sleepCredit is the fixed partial-credit table for sleep schedules.
// The "flexible" sentinel on either side scores 1.0; the only remaining
// mismatch is early vs late. The table is symmetric by construction:
// lookups normalize operand order.
var sleepCredit = map[[2]preference.SleepSchedule]float64{
	{preference.SleepEarly, preference.SleepLate}: 0.2,
}

func sleepSimilarity(a, b preference.SleepSchedule) float64 {
	if a == b {
		return 1
	}
	if a == preference.SleepFlexible || b == preference.SleepFlexible {
		return 1
	}
	if a > b {
		a, b = b, a
	}
	return sleepCredit[[2]preference.SleepSchedule{a, b}]
}

// choresCredit is the fixed partial-credit table for chores preferences.
// Symmetric by construction: lookups normalize operand order.
var choresCredit = map[[2]preference.ChoresPreference]float64{
	{preference.ChoresAsNeeded, preference.ChoresSchedule}: 0.6,
	{preference.ChoresAsNeeded, preference.ChoresHireHelp}: 0.6,
	{preference.ChoresHireHelp, preference.ChoresSchedule}: 0.3,
}

func choresSimilarity(a, b preference.ChoresPreference) float64 {
	if a == b {
		return 1
	}
	if a > b {
		a, b = b, a
	}
	return choresCredit[[2]preference.ChoresPreference{a, b}]
}

// petsCompatibility applies the hard incompatibility rule: a pet owner
// paired with someone not comfortable with pets scores exactly 0, no
// matter what the rest of the questionnaire says. Every other
// combination coexists fine and scores 1.
func petsCompatibility(a, b *preference.LifestylePreferences) float64 {
	if a.OwnsPets() && !b.ComfortableWithPets {
		return 0
	}
	if b.OwnsPets() && !a.ComfortableWithPets {
		return 0
	}
	return 1
}

// smokingSimilarity is Jaccard over the accepted-arrangement sets.
func smokingSimilarity(a, b []preference.SmokingPolicy) float64 {
	as := make([]string, len(a))
	for i, s := range a {
		as[i] = string(s)
	}
	bs := make([]string, len(b))
	for i, s := range b {
		bs[i] = string(s)
	}
	return jaccard(as, bs)
}

// ─────────────────────────────────────────────────────────────────────────────
// Primitives
// ─────────────────────────────────────────────────────────────────────────────

// jaccard is |A∩B| / |A∪B| over string sets, with duplicates ignored.
// Two empty sets are defined as identical (1.0).
func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}

	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}

	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// ordinalSimilarity is 1 − |a−b| / span for positions on an ordered scale.
func ordinalSimilarity(a, b, span int) float64 {
	if span <= 0 {
		return 1
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff > span {
		diff = span
	}
	return 1 - float64(diff)/float64(span)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
