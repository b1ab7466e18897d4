package supabase

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Storage is the object storage the listings and uploads services need.
type Storage interface {
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, bucket string, paths []string) error
	PublicURL(bucket, path string) string
}

type signedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"`
}

func (c *Client) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	var data signedUploadResponse
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/storage/v1/object/upload/sign/%s/%s", bucket, path),
		map[string]interface{}{"expiresIn": 3600, "upsert": false}, &data)
	if err != nil {
		return "", err
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		// relative /object/upload/sign/... path
		if !strings.HasPrefix(u, "/storage/v1") {
			u = "/storage/v1" + u
		}
		return c.BaseURL + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL")
}

// Upload stores data at bucket/path and returns its public URL.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/storage/v1/object/%s/%s", bucket, path), contentType, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return c.PublicURL(bucket, path), nil
}

// Remove deletes paths from bucket in one request.
func (c *Client) Remove(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return c.doJSON(ctx, http.MethodDelete, "/storage/v1/object/"+bucket, map[string][]string{"prefixes": paths}, nil)
}

func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.BaseURL, bucket, path)
}
