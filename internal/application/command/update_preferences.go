// Package command contains write operations (CQRS - Commands).
package command

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
// UPDATE PREFERENCES COMMAND
// Upserts a user's questionnaire answers section by section. Every change
// bumps the profile version hash and evicts the user's cached match scores,
// so a stale compatibility result can never survive a preference edit.
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePreferencesCommand contains the questionnaire sections to write.
// A nil section means "leave that section untouched".
type UpdatePreferencesCommand struct {
	// UserID is the profile owner.
	UserID string

	// Housing replaces the housing section when non-nil.
	Housing *preference.HousingPreferences

	// Lifestyle replaces the lifestyle section when non-nil.
	Lifestyle *preference.LifestylePreferences

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c UpdatePreferencesCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("update_preferences: user_id is required")
	}
	if c.Housing == nil && c.Lifestyle == nil {
		return errors.New("update_preferences: at least one section is required")
	}
	return nil
}

// UpdatePreferencesResult contains the result of updating preferences.
type UpdatePreferencesResult struct {
	// UserID is the profile owner.
	UserID string

	// ChangedSections lists which sections actually changed.
	ChangedSections []string

	// VersionHash is the hash of the profile after the update.
	VersionHash string

	// UpdatedAt is when the profile was written.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePreferencesHandler handles the UpdatePreferencesCommand.
type UpdatePreferencesHandler struct {
	prefRepo   preference.Repository
	matchCache matching.Cache // optional, nil disables eviction
	bus        shared.Publisher
}

// NewUpdatePreferencesHandler creates a new UpdatePreferencesHandler.
func NewUpdatePreferencesHandler(
	prefRepo preference.Repository,
	matchCache matching.Cache,
	bus shared.Publisher,
) *UpdatePreferencesHandler {
	return &UpdatePreferencesHandler{
		prefRepo:   prefRepo,
		matchCache: matchCache,
		bus:        bus,
	}
}

// Handle executes the update preferences command.
func (h *UpdatePreferencesHandler) Handle(
	ctx context.Context,
	cmd UpdatePreferencesCommand,
) (*UpdatePreferencesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("preference", "Update", shared.ErrValidation, "invalid command", err)
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}

	// Load the current snapshot; a first-time user starts from an empty one.
	profile, err := h.prefRepo.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("update_preferences: load profile: %w", err)
		}
		profile = &preference.Profile{UserID: userID}
	}
	previousHash := profile.VersionHash()

	changedSections := make([]string, 0, 2)
	if cmd.Housing != nil {
		housing := *cmd.Housing
		profile.Housing = &housing
		changedSections = append(changedSections, "housing")
	}
	if cmd.Lifestyle != nil {
		lifestyle := *cmd.Lifestyle
		profile.Lifestyle = &lifestyle
		changedSections = append(changedSections, "lifestyle")
	}

	// Reject bad answers at the write boundary; scoring trusts stored data.
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	newHash := profile.VersionHash()
	if newHash == previousHash {
		// Idempotent re-submit of identical answers: nothing to persist,
		// nothing to evict.
		return &UpdatePreferencesResult{
			UserID:          cmd.UserID,
			ChangedSections: []string{},
			VersionHash:     newHash,
			UpdatedAt:       profile.UpdatedAt,
		}, nil
	}

	profile.UpdatedAt = time.Now().UTC()
	if err := h.prefRepo.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update_preferences: save profile: %w", err)
	}

	// Versioned cache keys already guarantee freshness; eviction just
	// reclaims space early.
	if h.matchCache != nil {
		_ = h.matchCache.InvalidateUser(ctx, userID)
	}

	if h.bus != nil {
		event := shared.NewPreferencesUpdatedEvent(cmd.UserID, changedSections, newHash)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		_ = h.bus.Publish(ctx, event)
	}

	return &UpdatePreferencesResult{
		UserID:          cmd.UserID,
		ChangedSections: changedSections,
		VersionHash:     newHash,
		UpdatedAt:       profile.UpdatedAt,
	}, nil
}
