package preference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

const testUserID = "2e9b1c1a-0000-4000-8000-000000000001"

func validProfile() *Profile {
	days := 2
	return &Profile{
		UserID: shared.UserID(testUserID),
		Housing: &HousingPreferences{
			BudgetMin:    800,
			BudgetMax:    1200,
			MoveInDate:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			LeaseLengths: []LeaseLength{LeaseTwelveMonths, LeaseAcademicYear},
			MaxDistance:  DistanceOneTransit,
			QuietHours:   &QuietHours{Start: shared.ClockTime(22 * 60), End: shared.ClockTime(7 * 60)},
		},
		Lifestyle: &LifestylePreferences{
			CleanlinessLevel:    4,
			NoiseTolerance:      NoiseModerate,
			SleepSchedule:       SleepEarly,
			PetsStance:          NoPets,
			ComfortableWithPets: true,
			PetAllergies:        []string{"cats", "dogs"},
			SmokingPolicy:       []SmokingPolicy{SmokingNone},
			ChoresPreference:    ChoresSchedule,
			GuestsFrequency:     GuestsRarely,
			WorkFromHomeDays:    &days,
		},
	}
}

func TestProfileValidateAcceptsCompleteAnswers(t *testing.T) {
	assert.NoError(t, validProfile().Validate())
}

func TestProfileValidateRejectsInvertedBudget(t *testing.T) {
	p := validProfile()
	p.Housing.BudgetMin = 1500
	p.Housing.BudgetMax = 1200

	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)
}

func TestProfileValidateRejectsCleanlinessOutOfScale(t *testing.T) {
	p := validProfile()
	p.Lifestyle.CleanlinessLevel = 6

	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestProfileValidateRejectsUnknownEnumValue(t *testing.T) {
	p := validProfile()
	p.Lifestyle.SleepSchedule = SleepSchedule("nocturnal")

	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestProfileValidateRejectsTooManyWFHDays(t *testing.T) {
	p := validProfile()
	days := 8
	p.Lifestyle.WorkFromHomeDays = &days

	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestProfileIsEmpty(t *testing.T) {
	var nilProfile *Profile
	assert.True(t, nilProfile.IsEmpty())
	assert.True(t, (&Profile{UserID: shared.UserID(testUserID)}).IsEmpty())
	assert.False(t, validProfile().IsEmpty())
}

func TestVersionHashIsDeterministic(t *testing.T) {
	a := validProfile()
	b := validProfile()

	assert.Equal(t, a.VersionHash(), b.VersionHash())
}

func TestVersionHashIgnoresSetOrder(t *testing.T) {
	a := validProfile()
	b := validProfile()
	b.Lifestyle.PetAllergies = []string{"dogs", "cats"}
	b.Housing.LeaseLengths = []LeaseLength{LeaseAcademicYear, LeaseTwelveMonths}

	assert.Equal(t, a.VersionHash(), b.VersionHash())
}

func TestVersionHashChangesWithContent(t *testing.T) {
	a := validProfile()
	b := validProfile()
	b.Lifestyle.CleanlinessLevel = 5

	assert.NotEqual(t, a.VersionHash(), b.VersionHash())
}

func TestWeightSetDefaults(t *testing.T) {
	ws := WeightSet{DimCleanliness: MaxWeight}

	assert.Equal(t, MaxWeight, ws.For(DimCleanliness))
	assert.Equal(t, DefaultWeight, ws.For(DimBudget))

	var empty WeightSet
	assert.Equal(t, DefaultWeight, empty.For(DimPets))
}

func TestWeightSetValidate(t *testing.T) {
	assert.NoError(t, WeightSet{DimBudget: 1, DimPets: 5}.Validate())

	err := WeightSet{DimBudget: 6}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	err = WeightSet{Dimension("astrology"): 3}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestWeightSetIsAllDefault(t *testing.T) {
	assert.True(t, WeightSet{}.IsAllDefault())
	assert.True(t, WeightSet{DimBudget: DefaultWeight}.IsAllDefault())
	assert.False(t, WeightSet{DimBudget: MaxWeight}.IsAllDefault())
}
