package uploads

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"wardrobe-backend/internal/application/listings"
	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/infrastructure/imaging"
	"wardrobe-backend/internal/infrastructure/supabase"
	"wardrobe-backend/internal/pkg/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrFileNameRequired = errors.New("fileName is required")
	ErrEmptyFile        = errors.New("Image file is required")
	ErrTooLarge         = fmt.Errorf("Image must be %d MB or smaller", imaging.MaxUploadBytes>>20)
	ErrUnsupported      = errors.New("Only JPEG, PNG and WebP images are supported")
	ErrNotConfigured    = errors.New("Storage is not configured")
)

// ListingImages is the part of the listings service uploads attach images through.
type ListingImages interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	AddImage(ctx context.Context, ownerID, listingID uuid.UUID, img listings.ImageInput) (*domain.ListingImage, error)
}

type Service struct {
	Storage  supabase.Storage
	Bucket   string
	Listings ListingImages
	Retry    retry.Policy
}

// UploadResult is returned for a signed upload: the client PUTs to UploadURL, then uses PublicURL.
type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func objectName(fileName string) string {
	base := unsafeChars.ReplaceAllString(path.Base(strings.TrimSpace(fileName)), "-")
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), strings.Trim(base, "-"))
}

// GetSignedUploadURL returns a one-hour signed URL under the user's folder.
func (s *Service) GetSignedUploadURL(ctx context.Context, userID uuid.UUID, fileName string) (*UploadResult, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrFileNameRequired
	}
	if s.Storage == nil {
		return nil, ErrNotConfigured
	}
	p := userID.String() + "/" + objectName(fileName)
	var signed string
	err := retry.Do(ctx, s.Retry, "storage.sign_upload", func(ctx context.Context) error {
		var err error
		signed, err = s.Storage.CreateSignedUploadURL(ctx, s.Bucket, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &UploadResult{UploadURL: signed, PublicURL: s.Storage.PublicURL(s.Bucket, p), Path: p}, nil
}

// UploadListingImage normalises a photo, stores it and appends it to the owner's listing.
// If the image row cannot be written the stored object is removed again.
func (s *Service) UploadListingImage(ctx context.Context, ownerID, listingID uuid.UUID, data []byte) (*domain.ListingImage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > imaging.MaxUploadBytes {
		return nil, ErrTooLarge
	}
	if s.Storage == nil {
		return nil, ErrNotConfigured
	}
	listing, err := s.Listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.UserID != ownerID {
		return nil, listings.ErrForbidden
	}

	photo, err := imaging.Normalize(data)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			return nil, ErrUnsupported
		}
		return nil, err
	}

	p := fmt.Sprintf("%s/%s/%s.jpg", ownerID, listingID, uuid.NewString())
	var publicURL string
	err = retry.Do(ctx, s.Retry, "storage.upload", func(ctx context.Context) error {
		var err error
		publicURL, err = s.Storage.Upload(ctx, s.Bucket, p, photo.ContentType, photo.Data)
		return err
	})
	if err != nil {
		return nil, err
	}

	img, err := s.Listings.AddImage(ctx, ownerID, listingID, listings.ImageInput{URL: publicURL, Path: p})
	if err != nil {
		if rmErr := s.Storage.Remove(ctx, s.Bucket, []string{p}); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", p).Msg("orphaned listing image left in storage")
		}
		return nil, err
	}
	log.Info().Str("listing_id", listingID.String()).Int("width", photo.Width).Int("height", photo.Height).Msg("listing image stored")
	return img, nil
}
