package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: PREFERENCES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create preference tables
-- Version: 001

-- One questionnaire snapshot per user. The housing and lifestyle sections
-- live as JSONB documents: the schema of individual answers evolves with
-- the questionnaire, while the domain layer owns validation.
CREATE TABLE IF NOT EXISTS preference_profiles (
    user_id UUID PRIMARY KEY,
    housing JSONB,
    lifestyle JSONB,
    version_hash VARCHAR(32) NOT NULL DEFAULT '',
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_preference_profiles_updated_at
    ON preference_profiles(updated_at DESC);

-- Explicit question weights. Only non-default entries are stored; the
-- absence of a row means every dimension carries the default weight.
CREATE TABLE IF NOT EXISTS preference_weights (
    user_id UUID PRIMARY KEY,
    weights JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS preference_weights;
DROP TABLE IF EXISTS preference_profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: ROOMMATE PROPOSALS AND BLOCKS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create roommate tables
-- Version: 002

CREATE TABLE IF NOT EXISTS roommate_proposals (
    id UUID PRIMARY KEY,
    initiator_id UUID NOT NULL,
    candidate_id UUID NOT NULL,
    score INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(30) NOT NULL DEFAULT 'pending',
    initiator_accepted BOOLEAN NOT NULL DEFAULT FALSE,
    candidate_accepted BOOLEAN NOT NULL DEFAULT FALSE,
    decline_reason TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
    responded_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT different_participants CHECK (initiator_id != candidate_id),
    CONSTRAINT valid_proposal_status CHECK (status IN (
        'pending', 'initiator_accepted', 'candidate_accepted',
        'mutually_accepted', 'declined', 'expired', 'cancelled'
    )),
    CONSTRAINT valid_score CHECK (score >= 0 AND score <= 100)
);

CREATE INDEX IF NOT EXISTS idx_proposals_initiator ON roommate_proposals(initiator_id);
CREATE INDEX IF NOT EXISTS idx_proposals_candidate ON roommate_proposals(candidate_id);
CREATE INDEX IF NOT EXISTS idx_proposals_pending_expiry
    ON roommate_proposals(expires_at)
    WHERE status IN ('pending', 'initiator_accepted', 'candidate_accepted');

-- One-way blocks; pool filtering applies them in both directions.
CREATE TABLE IF NOT EXISTS roommate_blocks (
    blocker_id UUID NOT NULL,
    blocked_id UUID NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (blocker_id, blocked_id),
    CONSTRAINT different_users CHECK (blocker_id != blocked_id)
);

CREATE INDEX IF NOT EXISTS idx_blocks_blocked ON roommate_blocks(blocked_id);
`

const migration002Down = `
DROP TABLE IF EXISTS roommate_blocks;
DROP TABLE IF EXISTS roommate_proposals;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_preferences",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_roommate",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}
