package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/natalis-app/natalis-backend/internal/charts/domain"
)

const pqForeignKeyViolation = "23503"

// ArtifactRepository persists one chart artifact per profile.
type ArtifactRepository struct {
	db *sql.DB
}

func NewArtifactRepository(db *sql.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Load returns domain.ErrArtifactNotFound when the profile has no artifact yet.
func (r *ArtifactRepository) Load(ctx context.Context, profileID string) (*domain.Artifact, error) {
	const q = `
SELECT profile_id, signature, markup, subject, debug, generated_at
FROM chart_artifacts
WHERE profile_id = $1;
`
	var (
		a       domain.Artifact
		markup  sql.NullString
		subject []byte
		debug   []byte
	)
	err := r.db.QueryRowContext(ctx, q, profileID).
		Scan(&a.ProfileID, &a.Signature, &markup, &subject, &debug, &a.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chart artifact: %w", err)
	}

	if markup.Valid {
		a.Markup = &markup.String
	}
	if len(subject) > 0 {
		var echo domain.SubjectEcho
		if err := json.Unmarshal(subject, &echo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chart subject: %w", err)
		}
		a.Subject = &echo
	}
	if len(debug) > 0 {
		a.Debug = json.RawMessage(debug)
	}
	return &a, nil
}

// Save replaces the stored artifact in a single statement.
func (r *ArtifactRepository) Save(ctx context.Context, a *domain.Artifact) error {
	if a.GeneratedAt.IsZero() {
		a.GeneratedAt = time.Now().UTC()
	}

	var subject []byte
	if a.Subject != nil {
		b, err := json.Marshal(a.Subject)
		if err != nil {
			return fmt.Errorf("failed to marshal chart subject: %w", err)
		}
		subject = b
	}
	var debug []byte
	if len(a.Debug) > 0 {
		debug = a.Debug
	}

	const q = `
INSERT INTO chart_artifacts (profile_id, signature, markup, subject, debug, generated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (profile_id) DO UPDATE SET
    signature    = EXCLUDED.signature,
    markup       = EXCLUDED.markup,
    subject      = EXCLUDED.subject,
    debug        = EXCLUDED.debug,
    generated_at = EXCLUDED.generated_at;
`
	_, err := r.db.ExecContext(ctx, q, a.ProfileID, a.Signature, a.Markup, subject, debug, a.GeneratedAt)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pqForeignKeyViolation {
			return fmt.Errorf("%w: %s", domain.ErrOrphanArtifact, a.ProfileID)
		}
		return fmt.Errorf("failed to save chart artifact: %w", err)
	}
	return nil
}

// ListStale returns profiles whose chart is missing, older than the profile,
// or a failed attempt. Profiles attempted since their last edit wait until
// retryBefore, oldest attempt first, so skipped profiles rotate out.
func (r *ArtifactRepository) ListStale(ctx context.Context, retryBefore time.Time, limit int) ([]string, error) {
	const q = `
SELECT p.id
FROM birth_profiles p
LEFT JOIN chart_artifacts a ON a.profile_id = p.id
LEFT JOIN chart_attempts t ON t.profile_id = p.id
WHERE (a.profile_id IS NULL
       OR a.generated_at < p.updated_at
       OR (a.markup IS NULL AND a.generated_at < $1))
  AND (t.profile_id IS NULL
       OR t.attempted_at < p.updated_at
       OR t.attempted_at < $1)
ORDER BY t.attempted_at NULLS FIRST, p.updated_at
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, retryBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale charts: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan profile id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stale charts: %w", err)
	}
	return ids, nil
}

// MarkAttempt records that a build ran for the profile, whatever its outcome.
func (r *ArtifactRepository) MarkAttempt(ctx context.Context, profileID, outcome string, at time.Time) error {
	const q = `
INSERT INTO chart_attempts (profile_id, outcome, attempted_at)
VALUES ($1, $2, $3)
ON CONFLICT (profile_id) DO UPDATE SET
    outcome      = EXCLUDED.outcome,
    attempted_at = EXCLUDED.attempted_at;
`
	if _, err := r.db.ExecContext(ctx, q, profileID, outcome, at); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pqForeignKeyViolation {
			return fmt.Errorf("%w: %s", domain.ErrOrphanArtifact, profileID)
		}
		return fmt.Errorf("failed to record chart attempt: %w", err)
	}
	return nil
}
