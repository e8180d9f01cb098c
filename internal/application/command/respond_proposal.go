package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/roommate"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPOND PROPOSAL COMMAND
// Регистрирует ответ участника. Предложение становится парой только после
// согласия обоих; один отказ закрывает его окончательно.
// ══════════════════════════════════════════════════════════════════════════════

// ProposalResponse is the participant's answer.
type ProposalResponse string

const (
	ResponseAccept  ProposalResponse = "accept"
	ResponseDecline ProposalResponse = "decline"
)

// RespondProposalCommand contains a participant's response.
type RespondProposalCommand struct {
	// ProposalID identifies the proposal.
	ProposalID string

	// UserID is the responding participant.
	UserID string

	// Response is accept or decline.
	Response ProposalResponse

	// Reason optionally explains a decline.
	Reason string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RespondProposalCommand) Validate() error {
	if c.ProposalID == "" {
		return errors.New("respond_proposal: proposal_id is required")
	}
	if c.UserID == "" {
		return errors.New("respond_proposal: user_id is required")
	}
	if c.Response != ResponseAccept && c.Response != ResponseDecline {
		return errors.New("respond_proposal: response must be accept or decline")
	}
	return nil
}

// RespondProposalResult contains the proposal state after the response.
type RespondProposalResult struct {
	// ProposalID identifies the proposal.
	ProposalID string

	// Status is the lifecycle state after the response.
	Status roommate.Status

	// MutuallyAccepted reports whether both sides have now accepted.
	MutuallyAccepted bool

	// RespondedAt is when the final answer was recorded, if any.
	RespondedAt *time.Time
}

// RespondProposalHandler handles the RespondProposalCommand.
type RespondProposalHandler struct {
	proposalRepo roommate.Repository
	bus          shared.Publisher
}

// NewRespondProposalHandler creates a new RespondProposalHandler.
func NewRespondProposalHandler(proposalRepo roommate.Repository, bus shared.Publisher) *RespondProposalHandler {
	return &RespondProposalHandler{
		proposalRepo: proposalRepo,
		bus:          bus,
	}
}

// Handle executes the respond proposal command.
func (h *RespondProposalHandler) Handle(
	ctx context.Context,
	cmd RespondProposalCommand,
) (*RespondProposalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("roommate", "Respond", shared.ErrValidation, "invalid command", err)
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}

	proposal, err := h.proposalRepo.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return nil, err
	}

	switch cmd.Response {
	case ResponseAccept:
		err = proposal.Accept(userID)
	case ResponseDecline:
		err = proposal.Decline(userID, cmd.Reason)
	}
	if err != nil {
		// An expiry discovered on accept still has to be persisted.
		if errors.Is(err, shared.ErrExpired) {
			_ = h.proposalRepo.UpdateProposal(ctx, proposal)
		}
		return nil, err
	}

	if err := h.proposalRepo.UpdateProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("respond_proposal: save proposal: %w", err)
	}

	if h.bus != nil {
		event := shared.NewProposalRespondedEvent(
			proposal.ID, cmd.UserID, cmd.Response == ResponseAccept, string(proposal.Status),
		)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		_ = h.bus.Publish(ctx, event)
	}

	return &RespondProposalResult{
		ProposalID:       proposal.ID,
		Status:           proposal.Status,
		MutuallyAccepted: proposal.Status == roommate.StatusMutuallyAccepted,
		RespondedAt:      proposal.RespondedAt,
	}, nil
}
