package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/inkpress/inkpress/blog/domain"
	"github.com/rs/zerolog/log"
)

// UpdateProfileInput applies partial updates to the requester's own
// profile; nil pointers leave the field unchanged. Username is immutable
// here and has no field.
type UpdateProfileInput struct {
	FullName     *string
	Website      *string
	Bio          *string
	Avatar       *ImageUpload
	RemoveAvatar bool
}

// ProfileResult mirrors PostResult: AvatarErr is non-nil when the avatar
// step failed but the profile mutation went through.
type ProfileResult struct {
	Profile   *domain.Profile
	AvatarErr error
}

type ProfileService struct {
	repo  domain.ProfileRepository
	store domain.BlobStore
}

func NewProfileService(repo domain.ProfileRepository, store domain.BlobStore) *ProfileService {
	return &ProfileService{
		repo:  repo,
		store: store,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get profile: %v", domain.ErrStorage, err)
	}
	return profile, nil
}

// ProfilesByID resolves author display fields for a batch of posts.
// Lookups are best effort; a missing or failing profile is simply absent
// from the result and renders under the anonymous fallback.
func (s *ProfileService) ProfilesByID(ctx context.Context, ids []string) map[string]*domain.Profile {
	profiles := make(map[string]*domain.Profile, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := profiles[id]; ok {
			continue
		}

		profile, err := s.repo.GetProfile(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				log.Warn().Err(err).Str("profileID", id).Msg("Failed to resolve author profile")
			}
			continue
		}
		profiles[id] = profile
	}
	return profiles
}

// UpdateProfile mutates the requester's own profile. An avatar upload uses
// a deterministic per-owner path so a new avatar overwrites the old one.
func (s *ProfileService) UpdateProfile(ctx context.Context, requesterID string, in UpdateProfileInput) (*ProfileResult, error) {
	if requesterID == "" {
		return nil, fmt.Errorf("update profile: %w", domain.ErrPermissionDenied)
	}

	profile, err := s.GetProfile(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		profile.FullName = *in.FullName
	}
	if in.Website != nil {
		website := strings.TrimSpace(*in.Website)
		if website != "" {
			if err := validateWebsite(website); err != nil {
				return nil, err
			}
		}
		profile.Website = website
	}
	if in.Bio != nil {
		profile.Bio = *in.Bio
	}

	var avatarErr error
	switch {
	case in.Avatar != nil:
		url, err := s.store.Put(ctx, avatarPath(requesterID, in.Avatar.Filename), in.Avatar.Data)
		if err != nil {
			log.Error().Err(err).Str("profileID", requesterID).Msg("Failed to upload avatar")
			avatarErr = fmt.Errorf("%w: %v", domain.ErrUpload, err)
		} else {
			profile.AvatarURL = url
		}
	case in.RemoveAvatar:
		profile.AvatarURL = ""
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("%w: update profile: %v", domain.ErrStorage, err)
	}

	return &ProfileResult{Profile: profile, AvatarErr: avatarErr}, nil
}

// avatarPath is deterministic per owner: one avatar per account,
// overwritten in place on change.
func avatarPath(ownerID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return "avatars/" + ownerID + ext
}

func validateWebsite(website string) error {
	u, err := url.Parse(website)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.NewFieldError("website", "must be an http(s) URL")
	}
	return nil
}
