package cart

import (
	"context"
	"errors"

	cartsvc "wardrobe-backend/internal/application/cart"
	listsvc "wardrobe-backend/internal/application/listings"
	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/middleware"
	"wardrobe-backend/internal/pkg/response"
	"wardrobe-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ListingGetter loads the live listing that gets snapshotted into the cart.
type ListingGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
}

type Handlers struct {
	Store    *cartsvc.Store
	Listings ListingGetter
}

type addRequest struct {
	ListingID uuid.UUID `json:"listing_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1,max=10"`
}

func orEmpty(userID uuid.UUID, c *domain.Cart) *domain.Cart {
	if c == nil {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}
	}
	return c
}

func storeFailed(c *fiber.Ctx, err error) error {
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("cart store failed")
	return response.Error(c, "Cart is temporarily unavailable", fiber.StatusServiceUnavailable, nil)
}

// GET /api/v1/cart
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	cart, err := h.Store.Get(c.UserContext(), userID)
	if err != nil {
		return storeFailed(c, err)
	}
	return response.Success(c, "Cart fetched successfully", orEmpty(userID, cart), nil)
}

// POST /api/v1/cart/items
func (h *Handlers) AddItem(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadBody(c)
	}
	if fields := validation.Struct(req); fields != nil {
		return response.Invalid(c, fields)
	}

	listing, err := h.Listings.Get(c.UserContext(), req.ListingID)
	if err != nil {
		if errors.Is(err, listsvc.ErrNotFound) {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Internal(c)
	}
	if err := cartsvc.CheckAddable(*listing); err != nil {
		code := fiber.StatusBadRequest
		if errors.Is(err, cartsvc.ErrUnavailable) {
			code = fiber.StatusConflict
		}
		return response.Error(c, err.Error(), code, nil)
	}

	// The snapshot does not need the listing's children.
	snapshot := *listing
	snapshot.Tags, snapshot.Availability = nil, nil
	cart, err := h.Store.Add(c.UserContext(), userID, snapshot, req.Quantity)
	if err != nil {
		return storeFailed(c, err)
	}
	return response.Success(c, "Item added to cart", orEmpty(userID, cart), nil)
}

// DELETE /api/v1/cart/items/:listing_id
func (h *Handlers) RemoveItem(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	cart, err := h.Store.Remove(c.UserContext(), userID, listingID)
	if err != nil {
		return storeFailed(c, err)
	}
	return response.Success(c, "Item removed from cart", orEmpty(userID, cart), nil)
}

// DELETE /api/v1/cart
func (h *Handlers) Clear(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	if err := h.Store.Clear(c.UserContext(), userID); err != nil {
		return storeFailed(c, err)
	}
	return response.Success(c, "Cart cleared", orEmpty(userID, nil), nil)
}
