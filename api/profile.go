package api

import "time"

// Profile is the wire shape of an author profile.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Website     string    `json:"website,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`

	// AvatarError is set when the profile was saved but its avatar upload
	// failed.
	AvatarError string `json:"avatar_error,omitempty"`
}
