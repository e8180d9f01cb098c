package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/roommate"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROOMMATE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RoommateRepository implements roommate.Repository for PostgreSQL.
type RoommateRepository struct {
	conn *Connection
}

// NewRoommateRepository creates a new RoommateRepository.
func NewRoommateRepository(conn *Connection) *RoommateRepository {
	return &RoommateRepository{conn: conn}
}

// pendingStatuses is the SQL fragment matching non-final proposal states.
const pendingStatuses = `('pending', 'initiator_accepted', 'candidate_accepted')`

// CreateProposal stores a new proposal.
func (r *RoommateRepository) CreateProposal(ctx context.Context, p *roommate.Proposal) error {
	query := `
		INSERT INTO roommate_proposals (
			id, initiator_id, candidate_id, score, status,
			initiator_accepted, candidate_accepted, decline_reason,
			created_at, expires_at, responded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID,
		string(p.InitiatorID),
		string(p.CandidateID),
		p.Score.Int(),
		string(p.Status),
		p.InitiatorAccepted,
		p.CandidateAccepted,
		p.DeclineReason,
		p.CreatedAt,
		p.ExpiresAt,
		p.RespondedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrProposalDuplicate
		}
		return fmt.Errorf("postgres: create proposal: %w", err)
	}
	return nil
}

// GetProposal returns a proposal by ID.
func (r *RoommateRepository) GetProposal(ctx context.Context, id string) (*roommate.Proposal, error) {
	query := `
		SELECT id, initiator_id, candidate_id, score, status,
			   initiator_accepted, candidate_accepted, decline_reason,
			   created_at, expires_at, responded_at
		FROM roommate_proposals
		WHERE id = $1
	`

	p, err := scanProposal(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProposalNotFound
		}
		return nil, fmt.Errorf("postgres: get proposal: %w", err)
	}
	return p, nil
}

// UpdateProposal persists lifecycle changes.
func (r *RoommateRepository) UpdateProposal(ctx context.Context, p *roommate.Proposal) error {
	query := `
		UPDATE roommate_proposals SET
			status = $1,
			initiator_accepted = $2,
			candidate_accepted = $3,
			decline_reason = $4,
			responded_at = $5
		WHERE id = $6
	`

	result, err := r.conn.Exec(ctx, query,
		string(p.Status),
		p.InitiatorAccepted,
		p.CandidateAccepted,
		p.DeclineReason,
		p.RespondedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: update proposal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrProposalNotFound
	}
	return nil
}

// OpenProposalExists reports whether a non-final proposal links the two
// users in either direction.
func (r *RoommateRepository) OpenProposalExists(ctx context.Context, a, b shared.UserID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM roommate_proposals
			WHERE status IN ` + pendingStatuses + `
			  AND ((initiator_id = $1 AND candidate_id = $2)
			    OR (initiator_id = $2 AND candidate_id = $1))
		)
	`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, string(a), string(b)).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: open proposal check: %w", err)
	}
	return exists, nil
}

// ListExpiredPending returns pending proposals whose window closed before
// the cutoff. Oldest first so repeated sweeps make progress.
func (r *RoommateRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*roommate.Proposal, error) {
	query := `
		SELECT id, initiator_id, candidate_id, score, status,
			   initiator_accepted, candidate_accepted, decline_reason,
			   created_at, expires_at, responded_at
		FROM roommate_proposals
		WHERE status IN ` + pendingStatuses + `
		  AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list expired pending: %w", err)
	}
	defer rows.Close()

	var proposals []*roommate.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

// CreateBlock stores a block entry. Re-blocking the same user is a no-op.
func (r *RoommateRepository) CreateBlock(ctx context.Context, b *roommate.Block) error {
	query := `
		INSERT INTO roommate_blocks (blocker_id, blocked_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query, string(b.BlockerID), string(b.BlockedID), b.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create block: %w", err)
	}
	return nil
}

// ListCandidatePool returns user IDs eligible for ranking against the
// requester: profile holders minus the requester, block relations in
// either direction, and users already mutually matched with them.
func (r *RoommateRepository) ListCandidatePool(ctx context.Context, requesterID shared.UserID) ([]shared.UserID, error) {
	query := `
		SELECT p.user_id
		FROM preference_profiles p
		WHERE p.user_id != $1
		  AND NOT EXISTS (
			SELECT 1 FROM roommate_blocks b
			WHERE (b.blocker_id = $1 AND b.blocked_id = p.user_id)
			   OR (b.blocker_id = p.user_id AND b.blocked_id = $1)
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM roommate_proposals rp
			WHERE rp.status = 'mutually_accepted'
			  AND ((rp.initiator_id = $1 AND rp.candidate_id = p.user_id)
			    OR (rp.initiator_id = p.user_id AND rp.candidate_id = $1))
		  )
		ORDER BY p.user_id ASC
	`

	rows, err := r.conn.Query(ctx, query, string(requesterID))
	if err != nil {
		return nil, fmt.Errorf("postgres: list candidate pool: %w", err)
	}
	defer rows.Close()

	var ids []shared.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan user id: %w", err)
		}
		ids = append(ids, shared.UserID(id))
	}
	return ids, rows.Err()
}

func scanProposal(row rowScanner) (*roommate.Proposal, error) {
	var (
		p           roommate.Proposal
		initiatorID string
		candidateID string
		score       int
		status      string
	)
	err := row.Scan(
		&p.ID,
		&initiatorID,
		&candidateID,
		&score,
		&status,
		&p.InitiatorAccepted,
		&p.CandidateAccepted,
		&p.DeclineReason,
		&p.CreatedAt,
		&p.ExpiresAt,
		&p.RespondedAt,
	)
	if err != nil {
		return nil, err
	}

	p.InitiatorID = shared.UserID(initiatorID)
	p.CandidateID = shared.UserID(candidateID)
	p.Score = shared.Score(score)
	p.Status = roommate.Status(status)
	return &p, nil
}
