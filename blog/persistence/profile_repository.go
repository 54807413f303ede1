package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/inkpress/inkpress/blog/domain"
	"github.com/inkpress/inkpress/shared/db"
)

var _ domain.ProfileRepository = (*SQLiteProfileRepository)(nil)

// SQLiteProfileRepository implements domain.ProfileRepository on SQLite.
type SQLiteProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *SQLiteProfileRepository {
	return &SQLiteProfileRepository{db: db}
}

const insertProfileQuery = `
	INSERT INTO profiles (id, username, full_name, avatar_url, website, bio, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (r *SQLiteProfileRepository) CreateProfile(ctx context.Context, p *domain.Profile) error {
	if p == nil {
		return fmt.Errorf("profile cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("profile ID cannot be empty")
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	executor := db.GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, insertProfileQuery,
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

const getProfileQuery = `
	SELECT id, username, full_name, avatar_url, website, bio, created_at
	FROM profiles
	WHERE id = ?
`

func (r *SQLiteProfileRepository) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	if id == "" {
		return nil, fmt.Errorf("profile ID cannot be empty")
	}

	var p domain.Profile
	executor := db.GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, getProfileQuery, id).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.AvatarURL,
		&p.Website,
		&p.Bio,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

const updateProfileQuery = `
	UPDATE profiles
	SET full_name = ?, avatar_url = ?, website = ?, bio = ?
	WHERE id = ?
`

// UpdateProfile persists the owner-mutable fields. The username and id are
// fixed at creation and not part of the statement.
func (r *SQLiteProfileRepository) UpdateProfile(ctx context.Context, p *domain.Profile) error {
	if p == nil {
		return fmt.Errorf("profile cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("profile ID cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, updateProfileQuery,
		p.FullName,
		p.AvatarURL,
		p.Website,
		p.Bio,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile %s: %w", p.ID, domain.ErrNotFound)
	}

	return nil
}
