package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/infrastructure/supabase"
	"wardrobe-backend/internal/pkg/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("Profile not found")
	ErrNoChanges     = errors.New("No valid update fields provided")
	ErrUsernameTaken = errors.New("Username already taken")
	ErrNotSaved      = errors.New("Profile could not be saved")
)

type Service struct {
	DB    *gorm.DB
	Auth  supabase.AuthAdmin
	Retry retry.Policy
}

type UpdateInput struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=30,alphanum"`
	FullName  *string `json:"full_name" validate:"omitempty,max=120"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Ensure returns the profile row for an authenticated user, creating it on first sign-in.
func (s *Service) Ensure(ctx context.Context, userID uuid.UUID, email, fullName string) (*domain.Profile, error) {
	p := domain.Profile{ID: userID}
	err := s.DB.WithContext(ctx).
		Where(domain.Profile{ID: userID}).
		Attrs(domain.Profile{Email: email, FullName: fullName}).
		FirstOrCreate(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update writes the auth metadata first and then the profile row, both retried on rate limits.
// If the row write fails the metadata is put back so the two stay in step.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, in UpdateInput) (*domain.Profile, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	meta := map[string]interface{}{}
	if in.Username != nil {
		u := strings.TrimSpace(*in.Username)
		var dup int64
		if err := s.DB.WithContext(ctx).Model(&domain.Profile{}).Where("username = ? AND id <> ?", u, userID).Count(&dup).Error; err != nil {
			return nil, err
		}
		if dup > 0 {
			return nil, ErrUsernameTaken
		}
		updates["username"] = u
		meta["username"] = u
	}
	if in.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*in.FullName)
		meta["full_name"] = updates["full_name"]
	}
	if in.Bio != nil {
		updates["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
		meta["avatar_url"] = updates["avatar_url"]
	}
	if len(updates) == 0 {
		return nil, ErrNoChanges
	}

	previous, err := s.writeMetadata(ctx, userID, meta)
	if err != nil {
		return nil, err
	}

	err = retry.Do(ctx, s.Retry, "profile.update", func(ctx context.Context) error {
		return s.DB.WithContext(ctx).Model(current).Updates(updates).Error
	})
	if err != nil {
		if previous != nil {
			s.revertMetadata(ctx, userID, previous)
		}
		return nil, fmt.Errorf("%w: %v", ErrNotSaved, err)
	}
	return s.Get(ctx, userID)
}

// writeMetadata merges meta into the user's auth metadata and returns what was there before.
// It returns nil when there is nothing to write or no auth admin is configured.
func (s *Service) writeMetadata(ctx context.Context, userID uuid.UUID, meta map[string]interface{}) (map[string]interface{}, error) {
	if s.Auth == nil || len(meta) == 0 {
		return nil, nil
	}
	var previous map[string]interface{}
	err := retry.Do(ctx, s.Retry, "auth.get_metadata", func(ctx context.Context) error {
		var err error
		previous, err = s.Auth.GetUserMetadata(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSaved, err)
	}

	next := make(map[string]interface{}, len(previous)+len(meta))
	for k, v := range previous {
		next[k] = v
	}
	for k, v := range meta {
		next[k] = v
	}
	err = retry.Do(ctx, s.Retry, "auth.update_metadata", func(ctx context.Context) error {
		return s.Auth.UpdateUserMetadata(ctx, userID, next)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSaved, err)
	}
	return previous, nil
}

func (s *Service) revertMetadata(ctx context.Context, userID uuid.UUID, previous map[string]interface{}) {
	err := retry.Do(ctx, s.Retry, "auth.revert_metadata", func(ctx context.Context) error {
		return s.Auth.UpdateUserMetadata(ctx, userID, previous)
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("auth metadata left ahead of profile row")
	}
}
