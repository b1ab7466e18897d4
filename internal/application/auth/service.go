package auth

import (
	"context"
	"errors"
	"strings"

	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/infrastructure/supabase"

	"github.com/google/uuid"
)

// User is what the session keeps and /me returns.
type User struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type Profiles interface {
	Ensure(ctx context.Context, userID uuid.UUID, email, fullName string) (*domain.Profile, error)
}

type Service struct {
	JWTSecret string
	Profiles  Profiles
}

// Exchange verifies a Supabase access token and returns the user to store in the session.
// The profile row is created on first sign-in.
func (s *Service) Exchange(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrTokenRequired
	}
	claims, err := supabase.VerifyToken(s.JWTSecret, token)
	if err != nil {
		if errors.Is(err, supabase.ErrInvalidToken) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	userID, _ := claims.UserID()
	fullName, _ := claims.UserMetadata["full_name"].(string)

	u := &User{UserID: userID.String(), Email: claims.Email, FullName: fullName}
	if s.Profiles != nil {
		p, err := s.Profiles.Ensure(ctx, userID, claims.Email, fullName)
		if err != nil {
			return nil, err
		}
		if p.FullName != "" {
			u.FullName = p.FullName
		}
	}
	return u, nil
}

// VerifyUser reads the session user stored in Locals.
func VerifyUser(sessionUser interface{}) (*User, error) {
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	userID, _ := m["user_id"].(string)
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrNotAuthenticated
	}
	email, _ := m["email"].(string)
	fullName, _ := m["full_name"].(string)
	return &User{UserID: userID, Email: email, FullName: fullName}, nil
}
