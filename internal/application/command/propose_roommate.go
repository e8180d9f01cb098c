package command

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
// PROPOSE ROOMMATE COMMAND
// Создаёт предложение жить вместе. Оценка совместимости считается в момент
// создания и замораживается как снимок: получатель видит число, которое
// инициатор видел при отправке.
// ══════════════════════════════════════════════════════════════════════════════

// ProposeRoommateCommand contains the data to create a proposal.
type ProposeRoommateCommand struct {
	// InitiatorID is the user making the offer.
	InitiatorID string

	// CandidateID is the user receiving the offer.
	CandidateID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ProposeRoommateCommand) Validate() error {
	if c.InitiatorID == "" {
		return errors.New("propose_roommate: initiator_id is required")
	}
	if c.CandidateID == "" {
		return errors.New("propose_roommate: candidate_id is required")
	}
	return nil
}

// ProposeRoommateResult contains the created proposal.
type ProposeRoommateResult struct {
	// ProposalID identifies the new proposal.
	ProposalID string

	// Score is the compatibility snapshot recorded on the proposal.
	Score int

	// ExpiresAt is when the response window closes.
	ExpiresAt time.Time
}

// ProposeRoommateHandler handles the ProposeRoommateCommand.
type ProposeRoommateHandler struct {
	proposalRepo roommate.Repository
	prefRepo     preference.Repository
	bus          shared.Publisher
}

// NewProposeRoommateHandler creates a new ProposeRoommateHandler.
func NewProposeRoommateHandler(
	proposalRepo roommate.Repository,
	prefRepo preference.Repository,
	bus shared.Publisher,
) *ProposeRoommateHandler {
	return &ProposeRoommateHandler{
		proposalRepo: proposalRepo,
		prefRepo:     prefRepo,
		bus:          bus,
	}
}

// Handle executes the propose roommate command.
func (h *ProposeRoommateHandler) Handle(
	ctx context.Context,
	cmd ProposeRoommateCommand,
) (*ProposeRoommateResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("roommate", "Create", shared.ErrValidation, "invalid command", err)
	}

	initiatorID, err := shared.NewUserID(cmd.InitiatorID)
	if err != nil {
		return nil, err
	}
	candidateID, err := shared.NewUserID(cmd.CandidateID)
	if err != nil {
		return nil, err
	}
	if initiatorID == candidateID {
		return nil, shared.ErrSelfProposal
	}

	// One open proposal per pair, regardless of direction.
	exists, err := h.proposalRepo.OpenProposalExists(ctx, initiatorID, candidateID)
	if err != nil {
		return nil, fmt.Errorf("propose_roommate: duplicate check: %w", err)
	}
	if exists {
		return nil, shared.ErrProposalDuplicate
	}

	initiatorProfile, err := h.loadProfile(ctx, initiatorID)
	if err != nil {
		return nil, err
	}
	if initiatorProfile.IsEmpty() {
		return nil, shared.ErrRequesterNoPreferences
	}
	candidateProfile, err := h.loadProfile(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	weights, err := h.prefRepo.GetWeights(ctx, initiatorID)
	if err != nil {
		return nil, fmt.Errorf("propose_roommate: load weights: %w", err)
	}

	score := matching.Score(initiatorProfile, candidateProfile, weights)

	proposal, err := roommate.NewProposal(roommate.NewProposalParams{
		ID:          shared.NewEntityID(),
		InitiatorID: initiatorID,
		CandidateID: candidateID,
		Score:       score.OverallScore,
	})
	if err != nil {
		return nil, err
	}

	if err := h.proposalRepo.CreateProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("propose_roommate: save proposal: %w", err)
	}

	if h.bus != nil {
		event := shared.NewProposalCreatedEvent(
			proposal.ID, cmd.InitiatorID, cmd.CandidateID, proposal.Score.Int(),
		)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		_ = h.bus.Publish(ctx, event)
	}

	return &ProposeRoommateResult{
		ProposalID: proposal.ID,
		Score:      proposal.Score.Int(),
		ExpiresAt:  proposal.ExpiresAt,
	}, nil
}

// loadProfile fetches a profile, mapping a missing one to an empty snapshot
// for the candidate side (missing candidate data scores as "no applicable
// dimensions", not as an error).
func (h *ProposeRoommateHandler) loadProfile(ctx context.Context, userID shared.UserID) (*preference.Profile, error) {
	profile, err := h.prefRepo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &preference.Profile{UserID: userID}, nil
		}
		return nil, fmt.Errorf("propose_roommate: load profile: %w", err)
	}
	return profile, nil
}
