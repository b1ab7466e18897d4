package uploads

import (
	"errors"
	"io"

	"wardrobe-backend/internal/application/listings"
	uploadsvc "wardrobe-backend/internal/application/uploads"
	"wardrobe-backend/internal/infrastructure/imaging"
	"wardrobe-backend/internal/middleware"
	"wardrobe-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	FileName string `json:"fileName"`
}

func status(err error) int {
	switch {
	case errors.Is(err, uploadsvc.ErrFileNameRequired), errors.Is(err, uploadsvc.ErrEmptyFile),
		errors.Is(err, uploadsvc.ErrUnsupported):
		return fiber.StatusBadRequest
	case errors.Is(err, uploadsvc.ErrTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, listings.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, listings.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, uploadsvc.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// SignedURL POST /api/v1/uploads/signed-url
func (h *Handlers) SignedURL(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, uploadsvc.ErrFileNameRequired.Error(), fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.GetSignedUploadURL(c.UserContext(), userID, req.FileName)
	if err != nil {
		code := status(err)
		if code == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("upload: failed to generate signed URL")
			return response.Error(c, "Failed to generate upload URL", code, nil)
		}
		return response.Error(c, err.Error(), code, nil)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}

// ListingImage POST /api/v1/listings/:id/images (multipart, field "image")
func (h *Handlers) ListingImage(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, uploadsvc.ErrEmptyFile.Error(), fiber.StatusBadRequest, nil)
	}
	if fh.Size > imaging.MaxUploadBytes {
		return response.Error(c, uploadsvc.ErrTooLarge.Error(), fiber.StatusRequestEntityTooLarge, nil)
	}
	f, err := fh.Open()
	if err != nil {
		return response.BadBody(c)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, imaging.MaxUploadBytes+1))
	if err != nil {
		return response.BadBody(c)
	}

	img, err := h.Service.UploadListingImage(c.UserContext(), userID, listingID, data)
	if err != nil {
		code := status(err)
		if code == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("listing_id", listingID.String()).
				Msg("upload: listing image failed")
			return response.Error(c, "Failed to upload image", code, nil)
		}
		return response.Error(c, err.Error(), code, nil)
	}
	return response.SuccessCreated(c, "Image uploaded", img, nil)
}
