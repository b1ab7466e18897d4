package wishlist

import (
	"errors"

	wishsvc "wardrobe-backend/internal/application/wishlist"
	"wardrobe-backend/internal/middleware"
	"wardrobe-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *wishsvc.Service
}

func fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, wishsvc.ErrListingNotFound) || errors.Is(err, wishsvc.ErrNotSaved) {
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("wishlist request failed")
	return response.Internal(c)
}

// GET /api/v1/wishlist
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	items, err := h.Service.List(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Wishlist retrieved", items, fiber.Map{"count": len(items)})
}

// POST /api/v1/wishlist/:listing_id
// Saving an already saved listing answers 200 with the existing entry.
func (h *Handlers) Add(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	item, created, err := h.Service.Add(c.UserContext(), userID, listingID)
	if err != nil {
		return fail(c, err)
	}
	if created {
		return response.SuccessCreated(c, "Added to wishlist", item, nil)
	}
	return response.Success(c, "Already in wishlist", item, nil)
}

// DELETE /api/v1/wishlist/:listing_id
func (h *Handlers) Remove(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Remove(c.UserContext(), userID, listingID); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Removed from wishlist", fiber.Map{"listing_id": listingID}, nil)
}
