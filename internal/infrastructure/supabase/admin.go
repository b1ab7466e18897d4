package supabase

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// AuthAdmin reads and writes auth user metadata.
type AuthAdmin interface {
	GetUserMetadata(ctx context.Context, userID uuid.UUID) (map[string]interface{}, error)
	UpdateUserMetadata(ctx context.Context, userID uuid.UUID, metadata map[string]interface{}) error
}

type adminUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

func (c *Client) GetUserMetadata(ctx context.Context, userID uuid.UUID) (map[string]interface{}, error) {
	var u adminUser
	if err := c.doJSON(ctx, http.MethodGet, "/auth/v1/admin/users/"+userID.String(), nil, &u); err != nil {
		return nil, err
	}
	if u.UserMetadata == nil {
		u.UserMetadata = map[string]interface{}{}
	}
	return u.UserMetadata, nil
}

func (c *Client) UpdateUserMetadata(ctx context.Context, userID uuid.UUID, metadata map[string]interface{}) error {
	return c.doJSON(ctx, http.MethodPut, "/auth/v1/admin/users/"+userID.String(),
		map[string]interface{}{"user_metadata": metadata}, nil)
}
