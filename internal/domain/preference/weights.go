package preference

import (
	"strconv"
	"strings"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DIMENSIONS
// Каждое измерение - одна шкалируемая ось анкеты. Идентификаторы вопросов
// взвешенного подбора совпадают с измерениями один к одному.
// ══════════════════════════════════════════════════════════════════════════════

// Dimension identifies one scorable preference axis.
type Dimension string

const (
	DimBudget         Dimension = "budget"
	DimMoveInDate     Dimension = "move_in_date"
	DimLeaseLength    Dimension = "lease_length"
	DimMaxDistance    Dimension = "max_distance"
	DimQuietHours     Dimension = "quiet_hours"
	DimCleanliness    Dimension = "cleanliness"
	DimNoiseTolerance Dimension = "noise_tolerance"
	DimSleepSchedule  Dimension = "sleep_schedule"
	DimPets           Dimension = "pets"
	DimPetAllergies   Dimension = "pet_allergies"
	DimSmoking        Dimension = "smoking"
	DimChores         Dimension = "chores"
	DimGuests         Dimension = "guests"
	DimWorkFromHome   Dimension = "work_from_home"
)

// AllDimensions lists every scorable dimension in stable order.
var AllDimensions = []Dimension{
	DimBudget,
	DimMoveInDate,
	DimLeaseLength,
	DimMaxDistance,
	DimQuietHours,
	DimCleanliness,
	DimNoiseTolerance,
	DimSleepSchedule,
	DimPets,
	DimPetAllergies,
	DimSmoking,
	DimChores,
	DimGuests,
	DimWorkFromHome,
}

// IsValid checks membership in the closed dimension set.
func (d Dimension) IsValid() bool {
	for _, dim := range AllDimensions {
		if d == dim {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (d Dimension) String() string {
	return string(d)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION WEIGHTS
// ══════════════════════════════════════════════════════════════════════════════

// Weight is a caller-supplied importance multiplier for one dimension.
type Weight int

const (
	// MinWeight means "barely matters".
	MinWeight Weight = 1

	// DefaultWeight ("important") applies to every dimension the user
	// did not weight explicitly. Because of this default, weighted
	// scoring with no explicit weights degenerates to the plain mean.
	DefaultWeight Weight = 3

	// MaxWeight means "critical".
	MaxWeight Weight = 5
)

// IsValid checks the 1-5 scale.
func (w Weight) IsValid() bool {
	return w >= MinWeight && w <= MaxWeight
}

// Int returns the underlying int value.
func (w Weight) Int() int {
	return int(w)
}

// WeightSet maps dimensions to explicit weights. A user supplies at most
// one weight per dimension; absent dimensions fall back to DefaultWeight.
type WeightSet map[Dimension]Weight

// Validate checks every entry against the closed dimension set and the
// 1-5 scale.
func (ws WeightSet) Validate() error {
	for dim, w := range ws {
		if !dim.IsValid() {
			return shared.ErrUnknownDimension
		}
		if !w.IsValid() {
			return shared.ErrInvalidWeight
		}
	}
	return nil
}

// For returns the weight for a dimension, falling back to DefaultWeight.
func (ws WeightSet) For(dim Dimension) Weight {
	if ws == nil {
		return DefaultWeight
	}
	if w, ok := ws[dim]; ok {
		return w
	}
	return DefaultWeight
}

// IsAllDefault reports whether every dimension resolves to DefaultWeight,
// i.e. weighted and unweighted scoring would agree.
func (ws WeightSet) IsAllDefault() bool {
	for _, w := range ws {
		if w != DefaultWeight {
			return false
		}
	}
	return true
}

// Fingerprint returns a short deterministic encoding of the explicit
// weights, with default entries elided. Used as a compatibility-cache
// key component: a weight change must never read back a score computed
// under the old weights.
func (ws WeightSet) Fingerprint() string {
	parts := make([]string, 0, len(ws))
	for _, dim := range AllDimensions {
		if w, ok := ws[dim]; ok && w != DefaultWeight {
			parts = append(parts, string(dim)+"="+strconv.Itoa(int(w)))
		}
	}
	if len(parts) == 0 {
		return "default"
	}
	return strings.Join(parts, ",")
}

// Clone returns an independent copy of the set.
func (ws WeightSet) Clone() WeightSet {
	if ws == nil {
		return nil
	}
	out := make(WeightSet, len(ws))
	for dim, w := range ws {
		out[dim] = w
	}
	return out
}
