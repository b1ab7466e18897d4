package auth

import "errors"

var (
	ErrTokenRequired    = errors.New("Access token is required")
	ErrInvalidToken     = errors.New("Invalid access token")
	ErrNotAuthenticated = errors.New("Not authenticated")
)
