package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkpress/inkpress/blog/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ domain.ProfileRepository = (*ProfileRepository)(nil)

// ProfileRepository implements domain.ProfileRepository on Postgres via pgx.
type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) CreateProfile(ctx context.Context, p *domain.Profile) error {
	if p == nil {
		return fmt.Errorf("profile cannot be nil")
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO profiles (id, username, full_name, avatar_url, website, bio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.Username,
		p.FullName,
		p.AvatarURL,
		p.Website,
		p.Bio,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	query := `
		SELECT id, username, full_name, avatar_url, website, bio, created_at
		FROM profiles
		WHERE id = $1
	`

	var p domain.Profile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.AvatarURL,
		&p.Website,
		&p.Bio,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

func (r *ProfileRepository) UpdateProfile(ctx context.Context, p *domain.Profile) error {
	if p == nil {
		return fmt.Errorf("profile cannot be nil")
	}

	query := `
		UPDATE profiles
		SET full_name = $1, avatar_url = $2, website = $3, bio = $4
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query,
		p.FullName,
		p.AvatarURL,
		p.Website,
		p.Bio,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", p.ID, domain.ErrNotFound)
	}

	return nil
}
