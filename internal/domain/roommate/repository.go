package roommate

import (
	"context"
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// Repository is the proposal and block store contract.
type Repository interface {
	// CreateProposal stores a new proposal.
	CreateProposal(ctx context.Context, p *Proposal) error

	// GetProposal returns a proposal by ID, or shared.ErrProposalNotFound.
	GetProposal(ctx context.Context, id string) (*Proposal, error)

	// UpdateProposal persists lifecycle changes.
	UpdateProposal(ctx context.Context, p *Proposal) error

	// OpenProposalExists reports whether a non-final proposal already
	// links the two users, in either direction.
	OpenProposalExists(ctx context.Context, a, b shared.UserID) (bool, error)

	// ListExpiredPending returns pending proposals whose response window
	// closed before the cutoff. Used by the sweep job.
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*Proposal, error)

	// CreateBlock stores a block entry.
	CreateBlock(ctx context.Context, b *Block) error

	// ListCandidatePool returns user IDs eligible for ranking against
	// the requester: everyone with a preference profile except the
	// requester, users in a block relation with them (either
	// direction), and users already mutually accepted with them.
	// The result order is ascending by user ID.
	ListCandidatePool(ctx context.Context, requesterID shared.UserID) ([]shared.UserID, error)
}
