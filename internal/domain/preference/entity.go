// Package preference contains the housing and lifestyle questionnaire
// domain: the preference snapshot entities, their closed enumerations,
// write-boundary validation, and per-question importance weights.
//
// Scoring (internal/domain/matching) assumes every snapshot it receives
// has passed Validate here. Invalid data is rejected when written, never
// repaired downstream.
package preference

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMERATIONS
// Закрытые перечисления анкеты. Любое сравнение категорий идёт через
// явные таблицы в internal/domain/matching, а не через сравнение строк.
// ══════════════════════════════════════════════════════════════════════════════

// LeaseLength is a lease term option a user is willing to sign.
type LeaseLength string

const (
	LeaseSixMonths    LeaseLength = "6_months"
	LeaseNineMonths   LeaseLength = "9_months"
	LeaseTwelveMonths LeaseLength = "12_months"
	LeaseAcademicYear LeaseLength = "academic_year"
	LeaseFlexible     LeaseLength = "flexible"
)

// IsValid checks membership in the closed set.
func (l LeaseLength) IsValid() bool {
	switch l {
	case LeaseSixMonths, LeaseNineMonths, LeaseTwelveMonths, LeaseAcademicYear, LeaseFlexible:
		return true
	default:
		return false
	}
}

// DistanceBucket is the maximum acceptable distance to campus.
// The buckets are ordered from closest to "don't care".
type DistanceBucket string

const (
	DistanceWalking    DistanceBucket = "walking"
	DistanceOneTransit DistanceBucket = "one_transit"
	DistanceUnder30Min DistanceBucket = "under_30_min"
	DistanceAny        DistanceBucket = "any"
)

// distanceOrder defines the ordinal position of each bucket.
var distanceOrder = map[DistanceBucket]int{
	DistanceWalking:    0,
	DistanceOneTransit: 1,
	DistanceUnder30Min: 2,
	DistanceAny:        3,
}

// IsValid checks membership in the closed set.
func (d DistanceBucket) IsValid() bool {
	_, ok := distanceOrder[d]
	return ok
}

// Ordinal returns the bucket's position on the ordered scale.
func (d DistanceBucket) Ordinal() int {
	return distanceOrder[d]
}

// NoiseTolerance is an ordered scale of how much noise a user accepts.
type NoiseTolerance string

const (
	NoiseQuiet    NoiseTolerance = "quiet"
	NoiseModerate NoiseTolerance = "moderate"
	NoiseLoud     NoiseTolerance = "loud"
)

var noiseOrder = map[NoiseTolerance]int{
	NoiseQuiet:    0,
	NoiseModerate: 1,
	NoiseLoud:     2,
}

// IsValid checks membership in the closed set.
func (n NoiseTolerance) IsValid() bool {
	_, ok := noiseOrder[n]
	return ok
}

// Ordinal returns the tolerance's position on the ordered scale.
func (n NoiseTolerance) Ordinal() int {
	return noiseOrder[n]
}

// SleepSchedule describes when a user sleeps.
type SleepSchedule string

const (
	SleepEarly    SleepSchedule = "early"
	SleepLate     SleepSchedule = "late"
	SleepFlexible SleepSchedule = "flexible"
)

// IsValid checks membership in the closed set.
func (s SleepSchedule) IsValid() bool {
	switch s {
	case SleepEarly, SleepLate, SleepFlexible:
		return true
	default:
		return false
	}
}

// PetsStance describes whether the user brings pets.
type PetsStance string

const (
	HasPets PetsStance = "has_pets"
	NoPets  PetsStance = "no_pets"
)

// IsValid checks membership in the closed set.
func (p PetsStance) IsValid() bool {
	return p == HasPets || p == NoPets
}

// SmokingPolicy is one acceptable smoking arrangement. A user records the
// set of arrangements they can live with.
type SmokingPolicy string

const (
	SmokingNone    SmokingPolicy = "no_smoking"
	SmokingOutside SmokingPolicy = "outside_only"
	SmokingVaping  SmokingPolicy = "vaping_ok"
	SmokingIndoor  SmokingPolicy = "smoking_ok"
)

// IsValid checks membership in the closed set.
func (s SmokingPolicy) IsValid() bool {
	switch s {
	case SmokingNone, SmokingOutside, SmokingVaping, SmokingIndoor:
		return true
	default:
		return false
	}
}

// ChoresPreference describes how the user wants household chores handled.
type ChoresPreference string

const (
	ChoresSchedule ChoresPreference = "schedule"
	ChoresAsNeeded ChoresPreference = "as_needed"
	ChoresHireHelp ChoresPreference = "hire_help"
)

// IsValid checks membership in the closed set.
func (c ChoresPreference) IsValid() bool {
	switch c {
	case ChoresSchedule, ChoresAsNeeded, ChoresHireHelp:
		return true
	default:
		return false
	}
}

// GuestsFrequency is an ordered scale of how often guests come over.
type GuestsFrequency string

const (
	GuestsRarely    GuestsFrequency = "rarely"
	GuestsSometimes GuestsFrequency = "sometimes"
	GuestsOften     GuestsFrequency = "often"
)

var guestsOrder = map[GuestsFrequency]int{
	GuestsRarely:    0,
	GuestsSometimes: 1,
	GuestsOften:     2,
}

// IsValid checks membership in the closed set.
func (g GuestsFrequency) IsValid() bool {
	_, ok := guestsOrder[g]
	return ok
}

// Ordinal returns the frequency's position on the ordered scale.
func (g GuestsFrequency) Ordinal() int {
	return guestsOrder[g]
}

// ══════════════════════════════════════════════════════════════════════════════
// HOUSING PREFERENCES
// ══════════════════════════════════════════════════════════════════════════════

// QuietHours is a daily quiet window. Start may be later than End, which
// means the window wraps past midnight (22:00-07:00).
type QuietHours struct {
	Start shared.ClockTime `json:"start"`
	End   shared.ClockTime `json:"end"`
}

// HousingPreferences holds the housing side of the questionnaire.
// Zero values mean "not answered": a zero budget pair, zero MoveInDate,
// empty LeaseLengths, empty MaxDistance and nil QuietHours are all
// treated as missing data and omitted from scoring.
type HousingPreferences struct {
	// BudgetMin and BudgetMax bound the monthly rent the user can pay.
	BudgetMin shared.Money `json:"budget_min"`
	BudgetMax shared.Money `json:"budget_max"`

	// MoveInDate is the target move-in date.
	MoveInDate time.Time `json:"move_in_date"`

	// LeaseLengths are the lease terms the user would sign.
	LeaseLengths []LeaseLength `json:"lease_lengths"`

	// MaxDistance is the maximum acceptable distance to campus.
	MaxDistance DistanceBucket `json:"max_distance"`

	// QuietHours is the user's preferred daily quiet window.
	QuietHours *QuietHours `json:"quiet_hours,omitempty"`
}

// HasBudget reports whether the user answered the budget question.
func (h HousingPreferences) HasBudget() bool {
	return h.BudgetMax > 0
}

// Validate checks structural validity of all answered fields.
func (h HousingPreferences) Validate() error {
	if h.HasBudget() {
		if !h.BudgetMin.IsValid() || !h.BudgetMax.IsValid() {
			return shared.NewDomainError("preference", "Validate", shared.ErrValueOutOfRange, "budget out of range")
		}
		if h.BudgetMin > h.BudgetMax {
			return shared.ErrInvalidBudgetRange
		}
	}

	for _, l := range h.LeaseLengths {
		if !l.IsValid() {
			return shared.ErrUnknownEnumValue
		}
	}

	if h.MaxDistance != "" && !h.MaxDistance.IsValid() {
		return shared.ErrUnknownEnumValue
	}

	if h.QuietHours != nil {
		if !h.QuietHours.Start.IsValid() || !h.QuietHours.End.IsValid() {
			return shared.NewDomainError("preference", "Validate", shared.ErrValueOutOfRange, "quiet hours out of range")
		}
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFESTYLE PREFERENCES
// ══════════════════════════════════════════════════════════════════════════════

// LifestylePreferences holds the lifestyle side of the questionnaire.
// Zero values mean "not answered", same convention as HousingPreferences.
// WorkFromHomeDays uses a pointer because 0 days is a real answer.
type LifestylePreferences struct {
	// CleanlinessLevel is 1 (relaxed) to 5 (spotless). 0 = unanswered.
	CleanlinessLevel int `json:"cleanliness_level"`

	// NoiseTolerance is how much noise the user accepts.
	NoiseTolerance NoiseTolerance `json:"noise_tolerance"`

	// SleepSchedule is when the user sleeps.
	SleepSchedule SleepSchedule `json:"sleep_schedule"`

	// PetsStance says whether the user brings pets.
	PetsStance PetsStance `json:"pets_stance"`

	// ComfortableWithPets says whether the user can live with pets.
	ComfortableWithPets bool `json:"comfortable_with_pets"`

	// PetAllergies lists animals the user is allergic to.
	PetAllergies []string `json:"pet_allergies"`

	// SmokingPolicy is the set of smoking arrangements the user accepts.
	SmokingPolicy []SmokingPolicy `json:"smoking_policy"`

	// ChoresPreference is how the user wants chores handled.
	ChoresPreference ChoresPreference `json:"chores_preference"`

	// GuestsFrequency is how often the user hosts guests.
	GuestsFrequency GuestsFrequency `json:"guests_frequency"`

	// WorkFromHomeDays is days per week spent working from home (0-7).
	WorkFromHomeDays *int `json:"work_from_home_days,omitempty"`
}

// Validate checks structural validity of all answered fields.
func (l LifestylePreferences) Validate() error {
	if l.CleanlinessLevel != 0 && (l.CleanlinessLevel < CleanlinessMin || l.CleanlinessLevel > CleanlinessMax) {
		return shared.ErrInvalidCleanliness
	}

	if l.NoiseTolerance != "" && !l.NoiseTolerance.IsValid() {
		return shared.ErrUnknownEnumValue
	}
	if l.SleepSchedule != "" && !l.SleepSchedule.IsValid() {
		return shared.ErrUnknownEnumValue
	}
	if l.PetsStance != "" && !l.PetsStance.IsValid() {
		return shared.ErrUnknownEnumValue
	}
	for _, s := range l.SmokingPolicy {
		if !s.IsValid() {
			return shared.ErrUnknownEnumValue
		}
	}
	if l.ChoresPreference != "" && !l.ChoresPreference.IsValid() {
		return shared.ErrUnknownEnumValue
	}
	if l.GuestsFrequency != "" && !l.GuestsFrequency.IsValid() {
		return shared.ErrUnknownEnumValue
	}

	if l.WorkFromHomeDays != nil && (*l.WorkFromHomeDays < 0 || *l.WorkFromHomeDays > 7) {
		return shared.ErrInvalidWFHDays
	}

	return nil
}

// OwnsPets reports whether the user brings pets.
func (l LifestylePreferences) OwnsPets() bool {
	return l.PetsStance == HasPets
}

// Cleanliness scale bounds.
const (
	CleanlinessMin = 1
	CleanlinessMax = 5
)

// ══════════════════════════════════════════════════════════════════════════════
// PREFERENCE PROFILE (AGGREGATE)
// ══════════════════════════════════════════════════════════════════════════════

// Profile is a user's complete questionnaire snapshot. It is owned by
// exactly one user and mutated only through explicit preference-update
// commands; scoring reads it as an immutable value.
type Profile struct {
	// UserID is the owning user.
	UserID shared.UserID `json:"user_id"`

	// Housing holds housing answers (nil = section never filled in).
	Housing *HousingPreferences `json:"housing,omitempty"`

	// Lifestyle holds lifestyle answers (nil = section never filled in).
	Lifestyle *LifestylePreferences `json:"lifestyle,omitempty"`

	// UpdatedAt is when the profile last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmpty reports whether the user answered nothing at all. An empty
// profile fails the ranker's prerequisite check.
func (p *Profile) IsEmpty() bool {
	return p == nil || (p.Housing == nil && p.Lifestyle == nil)
}

// Validate checks the whole aggregate at the write boundary.
func (p *Profile) Validate() error {
	if !p.UserID.IsValid() {
		return shared.NewDomainError("preference", "Validate", shared.ErrInvalidID, "invalid user ID")
	}
	if p.Housing != nil {
		if err := p.Housing.Validate(); err != nil {
			return err
		}
	}
	if p.Lifestyle != nil {
		if err := p.Lifestyle.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// versionSnapshot is the canonical form hashed by VersionHash. Set-valued
// fields are sorted so field order in the stored JSON cannot leak into
// the hash.
type versionSnapshot struct {
	Housing   *HousingPreferences   `json:"housing"`
	Lifestyle *LifestylePreferences `json:"lifestyle"`
}

// VersionHash returns a deterministic hex digest of the profile content.
// Two profiles with identical answers always hash identically, which
// makes the hash safe to use as a compatibility-cache key component:
// any change to either party's answers changes the key, so a stale
// cached score can never be read back.
func (p *Profile) VersionHash() string {
	snap := versionSnapshot{}
	if p != nil {
		if p.Housing != nil {
			h := *p.Housing
			h.LeaseLengths = sortedLeases(h.LeaseLengths)
			snap.Housing = &h
		}
		if p.Lifestyle != nil {
			l := *p.Lifestyle
			l.PetAllergies = sortedStrings(l.PetAllergies)
			l.SmokingPolicy = sortedPolicies(l.SmokingPolicy)
			snap.Lifestyle = &l
		}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		// Canonical struct of plain values cannot fail to marshal.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func sortedLeases(in []LeaseLength) []LeaseLength {
	out := append([]LeaseLength(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedPolicies(in []SmokingPolicy) []SmokingPolicy {
	out := append([]SmokingPolicy(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
