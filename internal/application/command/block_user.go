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
// BLOCK USER COMMAND
// Removes a user from another user's world: blocked users disappear from
// each other's candidate pools in both directions.
// ══════════════════════════════════════════════════════════════════════════════

// BlockUserCommand contains the block request.
type BlockUserCommand struct {
	// BlockerID is the user placing the block.
	BlockerID string

	// BlockedID is the user being blocked.
	BlockedID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c BlockUserCommand) Validate() error {
	if c.BlockerID == "" {
		return errors.New("block_user: blocker_id is required")
	}
	if c.BlockedID == "" {
		return errors.New("block_user: blocked_id is required")
	}
	return nil
}

// BlockUserResult confirms the stored block.
type BlockUserResult struct {
	BlockerID string
	BlockedID string
	CreatedAt time.Time
}

// BlockUserHandler handles the BlockUserCommand.
type BlockUserHandler struct {
	proposalRepo roommate.Repository
	bus          shared.Publisher
}

// NewBlockUserHandler creates a new BlockUserHandler.
func NewBlockUserHandler(proposalRepo roommate.Repository, bus shared.Publisher) *BlockUserHandler {
	return &BlockUserHandler{
		proposalRepo: proposalRepo,
		bus:          bus,
	}
}

// Handle executes the block user command.
func (h *BlockUserHandler) Handle(ctx context.Context, cmd BlockUserCommand) (*BlockUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("roommate", "Block", shared.ErrValidation, "invalid command", err)
	}

	blockerID, err := shared.NewUserID(cmd.BlockerID)
	if err != nil {
		return nil, err
	}
	blockedID, err := shared.NewUserID(cmd.BlockedID)
	if err != nil {
		return nil, err
	}

	block, err := roommate.NewBlock(blockerID, blockedID)
	if err != nil {
		return nil, err
	}

	if err := h.proposalRepo.CreateBlock(ctx, block); err != nil {
		return nil, fmt.Errorf("block_user: save block: %w", err)
	}

	if h.bus != nil {
		event := shared.NewUserBlockedEvent(cmd.BlockerID, cmd.BlockedID)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		_ = h.bus.Publish(ctx, event)
	}

	return &BlockUserResult{
		BlockerID: cmd.BlockerID,
		BlockedID: cmd.BlockedID,
		CreatedAt: block.CreatedAt,
	}, nil
}
