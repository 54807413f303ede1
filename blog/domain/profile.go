package domain

import (
	"context"
	"time"
)

// anonymousName is the display fallback when a profile has neither a full
// name nor a username.
const anonymousName = "Anonymous"

// Profile is the public identity associated with an account. Its ID equals
// the underlying account identifier; the two share a lifecycle.
type Profile struct {
	ID        string
	Username  string
	FullName  string
	AvatarURL string
	Website   string
	Bio       string
	CreatedAt time.Time
}

// DisplayName resolves the user-facing name: full name, else username,
// else a literal fallback.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.Username != "" {
		return p.Username
	}
	return anonymousName
}

type ProfileRepository interface {
	CreateProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, id string) (*Profile, error)
	UpdateProfile(ctx context.Context, p *Profile) error
}
