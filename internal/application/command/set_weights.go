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
// SET WEIGHTS COMMAND
// Replaces a user's explicit question weights. Weights change how the
// aggregate score is computed, so cached scores for the user are evicted
// the same way a preference edit evicts them.
// ══════════════════════════════════════════════════════════════════════════════

// SetWeightsCommand contains the full replacement weight set.
type SetWeightsCommand struct {
	// UserID is the weight owner.
	UserID string

	// Weights maps dimension names to 1-5 importance values. Dimensions
	// not listed fall back to the default weight.
	Weights map[string]int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SetWeightsCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("set_weights: user_id is required")
	}
	return nil
}

// SetWeightsResult contains the result of replacing weights.
type SetWeightsResult struct {
	// UserID is the weight owner.
	UserID string

	// Fingerprint is the cache-key fingerprint of the stored set.
	Fingerprint string

	// UpdatedAt is when the weights were written.
	UpdatedAt time.Time
}

// SetWeightsHandler handles the SetWeightsCommand.
type SetWeightsHandler struct {
	prefRepo   preference.Repository
	matchCache matching.Cache
	bus        shared.Publisher
}

// NewSetWeightsHandler creates a new SetWeightsHandler.
func NewSetWeightsHandler(
	prefRepo preference.Repository,
	matchCache matching.Cache,
	bus shared.Publisher,
) *SetWeightsHandler {
	return &SetWeightsHandler{
		prefRepo:   prefRepo,
		matchCache: matchCache,
		bus:        bus,
	}
}

// Handle executes the set weights command.
func (h *SetWeightsHandler) Handle(ctx context.Context, cmd SetWeightsCommand) (*SetWeightsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("preference", "SetWeights", shared.ErrValidation, "invalid command", err)
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}

	weights := make(preference.WeightSet, len(cmd.Weights))
	for dim, w := range cmd.Weights {
		weights[preference.Dimension(dim)] = preference.Weight(w)
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	if err := h.prefRepo.SaveWeights(ctx, userID, weights); err != nil {
		return nil, fmt.Errorf("set_weights: save weights: %w", err)
	}

	// Weighted aggregation depends on the requester's weights, so the
	// user's cached scores are no longer valid.
	if h.matchCache != nil {
		_ = h.matchCache.InvalidateUser(ctx, userID)
	}

	if h.bus != nil {
		event := shared.NewWeightsUpdatedEvent(cmd.UserID)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		_ = h.bus.Publish(ctx, event)
	}

	return &SetWeightsResult{
		UserID:      cmd.UserID,
		Fingerprint: weights.Fingerprint(),
		UpdatedAt:   time.Now().UTC(),
	}, nil
}
