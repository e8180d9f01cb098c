// Package roommate contains the roommate proposal lifecycle: an invite
// created from a ranked match, the two-sided accept flow, and the block
// list that keeps unwanted users out of each other's candidate pools.
package roommate

import (
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROPOSAL
// Предложение жить вместе. Двусторонняя связь: действительна только
// после согласия обоих. 72 часа на ответ, потом предложение истекает.
// ══════════════════════════════════════════════════════════════════════════════

// ResponseWindow is how long participants have to respond.
const ResponseWindow = 72 * time.Hour

// Status is the proposal lifecycle state.
type Status string

const (
	// StatusPending - ожидает ответа обоих.
	StatusPending Status = "pending"

	// StatusInitiatorAccepted - инициатор принял, ждём кандидата.
	StatusInitiatorAccepted Status = "initiator_accepted"

	// StatusCandidateAccepted - кандидат принял, ждём инициатора.
	StatusCandidateAccepted Status = "candidate_accepted"

	// StatusMutuallyAccepted - оба приняли.
	StatusMutuallyAccepted Status = "mutually_accepted"

	// StatusDeclined - кто-то отклонил.
	StatusDeclined Status = "declined"

	// StatusExpired - истекло время ответа.
	StatusExpired Status = "expired"

	// StatusCancelled - отменено.
	StatusCancelled Status = "cancelled"
)

// IsValid checks membership in the closed status set.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInitiatorAccepted, StatusCandidateAccepted,
		StatusMutuallyAccepted, StatusDeclined, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsPending reports whether the proposal still awaits a response.
func (s Status) IsPending() bool {
	return s == StatusPending || s == StatusInitiatorAccepted || s == StatusCandidateAccepted
}

// IsFinal reports whether the status is terminal.
func (s Status) IsFinal() bool {
	return s == StatusMutuallyAccepted || s == StatusDeclined ||
		s == StatusExpired || s == StatusCancelled
}

// Proposal represents a roommate invite between two users.
type Proposal struct {
	// ID - уникальный идентификатор (UUID).
	ID string

	// InitiatorID - кто предложил съехаться.
	InitiatorID shared.UserID

	// CandidateID - кому предложили.
	CandidateID shared.UserID

	// Score - оценка совместимости на момент создания (0-100).
	// Снимок для отображения; пересчёт всегда идёт от актуальных анкет.
	Score shared.Score

	// Status - текущий статус.
	Status Status

	// InitiatorAccepted / CandidateAccepted - кто уже согласился.
	InitiatorAccepted bool
	CandidateAccepted bool

	// CreatedAt - когда создано.
	CreatedAt time.Time

	// ExpiresAt - когда истекает предложение.
	ExpiresAt time.Time

	// RespondedAt - когда получен финальный ответ (nil, пока его нет).
	RespondedAt *time.Time

	// DeclineReason - причина отклонения.
	DeclineReason string
}

// NewProposalParams are the inputs for creating a proposal.
type NewProposalParams struct {
	ID          string
	InitiatorID shared.UserID
	CandidateID shared.UserID
	Score       shared.Score
}

// NewProposal creates a pending proposal.
func NewProposal(params NewProposalParams) (*Proposal, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("roommate", "Create", shared.ErrEmptyValue, "proposal id is required")
	}
	if !params.InitiatorID.IsValid() || !params.CandidateID.IsValid() {
		return nil, shared.NewDomainError("roommate", "Create", shared.ErrInvalidID, "invalid participant ID")
	}
	if params.InitiatorID == params.CandidateID {
		return nil, shared.ErrSelfProposal
	}
	if !params.Score.IsValid() {
		return nil, shared.NewDomainError("roommate", "Create", shared.ErrValueOutOfRange, "score out of range")
	}

	now := time.Now().UTC()
	return &Proposal{
		ID:          params.ID,
		InitiatorID: params.InitiatorID,
		CandidateID: params.CandidateID,
		Score:       params.Score,
		Status:      StatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ResponseWindow),
	}, nil
}

// Accept registers a participant's consent.
func (p *Proposal) Accept(userID shared.UserID) error {
	if p.Status.IsFinal() {
		return shared.ErrProposalFinalized
	}
	if time.Now().After(p.ExpiresAt) {
		p.Status = StatusExpired
		return shared.ErrProposalExpired
	}

	switch userID {
	case p.InitiatorID:
		p.InitiatorAccepted = true
	case p.CandidateID:
		p.CandidateAccepted = true
	default:
		return shared.ErrNotParticipant
	}

	p.updateStatus()
	return nil
}

// Decline registers a participant's refusal and finalizes the proposal.
func (p *Proposal) Decline(userID shared.UserID, reason string) error {
	if p.Status.IsFinal() {
		return shared.ErrProposalFinalized
	}
	if userID != p.InitiatorID && userID != p.CandidateID {
		return shared.ErrNotParticipant
	}

	now := time.Now().UTC()
	p.Status = StatusDeclined
	p.RespondedAt = &now
	p.DeclineReason = reason
	return nil
}

// Cancel finalizes the proposal without a response.
func (p *Proposal) Cancel() error {
	if p.Status.IsFinal() {
		return shared.ErrProposalFinalized
	}
	p.Status = StatusCancelled
	return nil
}

// MarkExpired finalizes a proposal past its response window.
func (p *Proposal) MarkExpired() error {
	if p.Status.IsFinal() {
		return shared.ErrProposalFinalized
	}
	p.Status = StatusExpired
	return nil
}

// IsExpired reports whether the window passed without a final answer.
func (p *Proposal) IsExpired() bool {
	return time.Now().After(p.ExpiresAt) && p.Status.IsPending()
}

// Involves reports whether the user is a participant.
func (p *Proposal) Involves(userID shared.UserID) bool {
	return p.InitiatorID == userID || p.CandidateID == userID
}

// OtherParticipant returns the counterpart of the given participant.
func (p *Proposal) OtherParticipant(userID shared.UserID) shared.UserID {
	if p.InitiatorID == userID {
		return p.CandidateID
	}
	return p.InitiatorID
}

// updateStatus derives the status from the recorded consents.
func (p *Proposal) updateStatus() {
	switch {
	case p.InitiatorAccepted && p.CandidateAccepted:
		now := time.Now().UTC()
		p.Status = StatusMutuallyAccepted
		p.RespondedAt = &now
	case p.InitiatorAccepted:
		p.Status = StatusInitiatorAccepted
	case p.CandidateAccepted:
		p.Status = StatusCandidateAccepted
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Block removes a user from another user's candidate pool, one-way.
type Block struct {
	// BlockerID - кто заблокировал.
	BlockerID shared.UserID

	// BlockedID - кого заблокировали.
	BlockedID shared.UserID

	// CreatedAt - когда.
	CreatedAt time.Time
}

// NewBlock creates a block entry.
func NewBlock(blockerID, blockedID shared.UserID) (*Block, error) {
	if !blockerID.IsValid() || !blockedID.IsValid() {
		return nil, shared.NewDomainError("roommate", "Block", shared.ErrInvalidID, "invalid participant ID")
	}
	if blockerID == blockedID {
		return nil, shared.NewDomainError("roommate", "Block", shared.ErrInvalidInput, "cannot block yourself")
	}
	return &Block{
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now().UTC(),
	}, nil
}
