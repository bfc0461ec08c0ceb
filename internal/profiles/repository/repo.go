package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/natalis-app/natalis-backend/internal/profiles/domain"
)

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct {
	db DB
}

func NewRepo(db DB) *Repo {
	return &Repo{db: db}
}

const profileColumns = `id::text, owner_uid, name, birth_date, time_known, birth_time, seconds, place, geo,
       gender, lives_elsewhere, current_city, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, p *domain.Profile) error {
	geo, err := marshalGeo(p.Geo)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO birth_profiles (id, owner_uid, name, birth_date, time_known, birth_time, seconds, place, geo,
                            gender, lives_elsewhere, current_city, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
`
	_, err = r.db.Exec(ctx, q,
		p.ID, p.OwnerUID, p.Name, p.BirthDate, p.TimeKnown, nullIfEmpty(p.BirthTime), p.Seconds, p.Place, geo,
		p.Gender, p.LivesElsewhere, p.CurrentCity, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert birth profile: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (*domain.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM birth_profiles WHERE id = $1;`
	p, err := scanProfile(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get birth profile: %w", err)
	}
	return p, nil
}

func (r *Repo) Update(ctx context.Context, p *domain.Profile) error {
	geo, err := marshalGeo(p.Geo)
	if err != nil {
		return err
	}

	const q = `
UPDATE birth_profiles
SET name = $2, birth_date = $3, time_known = $4, birth_time = $5, seconds = $6, place = $7, geo = $8,
    gender = $9, lives_elsewhere = $10, current_city = $11, updated_at = $12
WHERE id = $1;
`
	tag, err := r.db.Exec(ctx, q,
		p.ID, p.Name, p.BirthDate, p.TimeKnown, nullIfEmpty(p.BirthTime), p.Seconds, p.Place, geo,
		p.Gender, p.LivesElsewhere, p.CurrentCity, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update birth profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *Repo) ListByOwner(ctx context.Context, ownerUID string) ([]domain.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM birth_profiles WHERE owner_uid = $1 ORDER BY created_at;`
	rows, err := r.db.Query(ctx, q, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list birth profiles: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Profile, 0, 4)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan birth profile: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list birth profiles: %w", err)
	}
	return out, nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		p         domain.Profile
		birthTime *string
		geo       []byte
	)
	err := row.Scan(&p.ID, &p.OwnerUID, &p.Name, &p.BirthDate, &p.TimeKnown, &birthTime, &p.Seconds, &p.Place, &geo,
		&p.Gender, &p.LivesElsewhere, &p.CurrentCity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if birthTime != nil {
		p.BirthTime = *birthTime
	}
	if len(geo) > 0 {
		var g domain.Geo
		if err := json.Unmarshal(geo, &g); err != nil {
			return nil, fmt.Errorf("unmarshal geo: %w", err)
		}
		p.Geo = &g
	}
	return &p, nil
}

func marshalGeo(g *domain.Geo) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal geo: %w", err)
	}
	return b, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
