package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/preference"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREFERENCE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PreferenceRepository implements preference.Repository for PostgreSQL.
// Sections are stored as JSONB documents; the domain layer validates them
// before they reach this boundary.
type PreferenceRepository struct {
	conn *Connection
}

// NewPreferenceRepository creates a new PreferenceRepository.
func NewPreferenceRepository(conn *Connection) *PreferenceRepository {
	return &PreferenceRepository{conn: conn}
}

// GetProfile returns the user's preference snapshot.
func (r *PreferenceRepository) GetProfile(ctx context.Context, userID shared.UserID) (*preference.Profile, error) {
	query := `
		SELECT user_id, housing, lifestyle, updated_at
		FROM preference_profiles
		WHERE user_id = $1
	`

	row := r.conn.QueryRow(ctx, query, string(userID))
	profile, err := scanProfile(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPreferencesNotFound
		}
		return nil, fmt.Errorf("postgres: get profile: %w", err)
	}
	return profile, nil
}

// GetProfiles returns snapshots for many users in one round trip.
func (r *PreferenceRepository) GetProfiles(ctx context.Context, userIDs []shared.UserID) (map[shared.UserID]*preference.Profile, error) {
	out := make(map[shared.UserID]*preference.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = string(id)
	}

	query := `
		SELECT user_id, housing, lifestyle, updated_at
		FROM preference_profiles
		WHERE user_id = ANY($1)
	`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: get profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan profile: %w", err)
		}
		out[profile.UserID] = profile
	}
	return out, rows.Err()
}

// SaveProfile upserts the user's preference snapshot.
func (r *PreferenceRepository) SaveProfile(ctx context.Context, profile *preference.Profile) error {
	housingJSON, lifestyleJSON, err := marshalSections(profile)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO preference_profiles (user_id, housing, lifestyle, version_hash, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			housing = EXCLUDED.housing,
			lifestyle = EXCLUDED.lifestyle,
			version_hash = EXCLUDED.version_hash,
			updated_at = EXCLUDED.updated_at
	`

	updatedAt := profile.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = r.conn.Exec(ctx, query,
		string(profile.UserID),
		housingJSON,
		lifestyleJSON,
		profile.VersionHash(),
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save profile: %w", err)
	}
	return nil
}

// GetWeights returns the user's explicit question weights.
func (r *PreferenceRepository) GetWeights(ctx context.Context, userID shared.UserID) (preference.WeightSet, error) {
	query := `SELECT weights FROM preference_weights WHERE user_id = $1`

	var raw []byte
	err := r.conn.QueryRow(ctx, query, string(userID)).Scan(&raw)
	if err != nil {
		if IsNoRows(err) {
			// No stored weights means every dimension is default.
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: get weights: %w", err)
	}

	var stored map[string]int
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("postgres: decode weights: %w", err)
	}

	weights := make(preference.WeightSet, len(stored))
	for dim, w := range stored {
		weights[preference.Dimension(dim)] = preference.Weight(w)
	}
	return weights, nil
}

// SaveWeights replaces the user's explicit question weights.
func (r *PreferenceRepository) SaveWeights(ctx context.Context, userID shared.UserID, weights preference.WeightSet) error {
	stored := make(map[string]int, len(weights))
	for dim, w := range weights {
		stored[string(dim)] = w.Int()
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("postgres: encode weights: %w", err)
	}

	query := `
		INSERT INTO preference_weights (user_id, weights, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			weights = EXCLUDED.weights,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.conn.Exec(ctx, query, string(userID), raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("postgres: save weights: %w", err)
	}
	return nil
}

// ListRecentlyActive returns users whose profile changed since the cutoff.
func (r *PreferenceRepository) ListRecentlyActive(ctx context.Context, since time.Time, limit int) ([]shared.UserID, error) {
	query := `
		SELECT user_id
		FROM preference_profiles
		WHERE updated_at >= $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recently active: %w", err)
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

// ─────────────────────────────────────────────────────────────────────────────
// Row mapping
// ─────────────────────────────────────────────────────────────────────────────

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*preference.Profile, error) {
	var (
		userID        string
		housingJSON   []byte
		lifestyleJSON []byte
		updatedAt     time.Time
	)
	if err := row.Scan(&userID, &housingJSON, &lifestyleJSON, &updatedAt); err != nil {
		return nil, err
	}

	profile := &preference.Profile{
		UserID:    shared.UserID(userID),
		UpdatedAt: updatedAt,
	}
	if len(housingJSON) > 0 {
		var housing preference.HousingPreferences
		if err := json.Unmarshal(housingJSON, &housing); err != nil {
			return nil, fmt.Errorf("decode housing section: %w", err)
		}
		profile.Housing = &housing
	}
	if len(lifestyleJSON) > 0 {
		var lifestyle preference.LifestylePreferences
		if err := json.Unmarshal(lifestyleJSON, &lifestyle); err != nil {
			return nil, fmt.Errorf("decode lifestyle section: %w", err)
		}
		profile.Lifestyle = &lifestyle
	}
	return profile, nil
}

func marshalSections(profile *preference.Profile) (housing, lifestyle []byte, err error) {
	if profile.Housing != nil {
		housing, err = json.Marshal(profile.Housing)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: encode housing section: %w", err)
		}
	}
	if profile.Lifestyle != nil {
		lifestyle, err = json.Marshal(profile.Lifestyle)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: encode lifestyle section: %w", err)
		}
	}
	return housing, lifestyle, nil
}
