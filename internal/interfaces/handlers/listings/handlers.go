package listings

import (
	"errors"
	"strings"

	listsvc "wardrobe-backend/internal/application/listings"
	"wardrobe-backend/internal/application/pricing"
	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/middleware"
	"wardrobe-backend/internal/pkg/response"
	"wardrobe-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *listsvc.Service
	Pricing *pricing.Service
}

type createRequest struct {
	Title        string                `json:"title" validate:"required,max=120"`
	Description  string                `json:"description" validate:"max=2000"`
	Brand        string                `json:"brand" validate:"max=80"`
	Size         string                `json:"size" validate:"max=20"`
	Condition    string                `json:"condition" validate:"max=40"`
	DailyPrice   float64               `json:"daily_price" validate:"gte=0"`
	WeeklyPrice  *float64              `json:"weekly_price" validate:"omitempty,gt=0"`
	Location     string                `json:"location" validate:"max=120"`
	Latitude     *float64              `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64              `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	ListingType  string                `json:"listing_type" validate:"required,oneof=Rent Buy Sell Trade"`
	Tags         []string              `json:"tags" validate:"max=20,dive,max=40"`
	Images       []listsvc.ImageInput  `json:"images" validate:"max=10"`
	Availability []listsvc.WindowInput `json:"availability" validate:"max=20"`
}

type updateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=120"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Brand       *string  `json:"brand" validate:"omitempty,max=80"`
	Size        *string  `json:"size" validate:"omitempty,max=20"`
	Condition   *string  `json:"condition" validate:"omitempty,max=40"`
	DailyPrice  *float64 `json:"daily_price" validate:"omitempty,gte=0"`
	WeeklyPrice *float64 `json:"weekly_price" validate:"omitempty,gt=0"`
	Location    *string  `json:"location" validate:"omitempty,max=120"`
	IsAvailable *bool    `json:"is_available"`
}

func status(err error) int {
	switch {
	case errors.Is(err, listsvc.ErrNotFound), errors.Is(err, pricing.ErrListingNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, listsvc.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, listsvc.ErrInvalidType), errors.Is(err, listsvc.ErrInvalidPrice),
		errors.Is(err, listsvc.ErrTitleRequired), errors.Is(err, listsvc.ErrInvalidWindow),
		errors.Is(err, listsvc.ErrNoChanges), errors.Is(err, pricing.ErrInvalidDate),
		errors.Is(err, pricing.ErrNotRentable):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	code := status(err)
	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("listings request failed")
		return response.Internal(c)
	}
	return response.Error(c, err.Error(), code, nil)
}

func invalidID(c *fiber.Ctx) error {
	return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
}

// POST /api/v1/listings
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadBody(c)
	}
	if fields := validation.Struct(req); fields != nil {
		return response.Invalid(c, fields)
	}
	listing, report, err := h.Service.Create(c.UserContext(), listsvc.CreateInput{
		UserID:       userID,
		Title:        req.Title,
		Description:  req.Description,
		Brand:        req.Brand,
		Size:         req.Size,
		Condition:    req.Condition,
		DailyPrice:   req.DailyPrice,
		WeeklyPrice:  req.WeeklyPrice,
		Location:     req.Location,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		ListingType:  domain.ListingType(req.ListingType),
		Tags:         req.Tags,
		Images:       req.Images,
		Availability: req.Availability,
	})
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", fiber.Map{"listing": listing, "report": report}, nil)
}

// GET /api/v1/listings?type=&available=&owner_id=&brand=&size=&q=&limit=&offset=
func (h *Handlers) List(c *fiber.Ctx) error {
	f := listsvc.Filter{
		Type:   domain.ListingType(c.Query("type")),
		Brand:  c.Query("brand"),
		Size:   c.Query("size"),
		Search: strings.TrimSpace(c.Query("q")),
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if f.Type != "" && !f.Type.Valid() {
		return response.Error(c, listsvc.ErrInvalidType.Error(), fiber.StatusBadRequest, nil)
	}
	if v := c.Query("available"); v != "" {
		b := c.QueryBool("available")
		f.Available = &b
	}
	if v := c.Query("owner_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return response.Error(c, "Invalid owner_id", fiber.StatusBadRequest, nil)
		}
		f.OwnerID = &id
	}
	page, err := h.Service.List(c.UserContext(), f)
	if err != nil {
		return fail(c, err)
	}
	return response.Page(c, "Listings fetched successfully", page.Listings, page.Total, page.Limit, page.Offset)
}

// GET /api/v1/listings/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	page, err := h.Service.List(c.UserContext(), listsvc.Filter{
		OwnerID: &userID,
		Limit:   c.QueryInt("limit", 20),
		Offset:  c.QueryInt("offset", 0),
	})
	if err != nil {
		return fail(c, err)
	}
	return response.Page(c, "Listings fetched successfully", page.Listings, page.Total, page.Limit, page.Offset)
}

// GET /api/v1/listings/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	listing, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing fetched successfully", listing, fiber.Map{"price": pricing.PriceOf(*listing)})
}

// POST /api/v1/listings/batch {"ids": [...]}
func (h *Handlers) Batch(c *fiber.Ctx) error {
	var req struct {
		IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=100"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadBody(c)
	}
	if fields := validation.Struct(req); fields != nil {
		return response.Invalid(c, fields)
	}
	listings, err := h.Service.GetByIDs(c.UserContext(), req.IDs)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listings fetched successfully", listings, nil)
}

// PATCH /api/v1/listings/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadBody(c)
	}
	if fields := validation.Struct(req); fields != nil {
		return response.Invalid(c, fields)
	}
	listing, err := h.Service.Update(c.UserContext(), userID, id, listsvc.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Brand:       req.Brand,
		Size:        req.Size,
		Condition:   req.Condition,
		DailyPrice:  req.DailyPrice,
		WeeklyPrice: req.WeeklyPrice,
		Location:    req.Location,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing updated successfully", listing, nil)
}

// DELETE /api/v1/listings/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	removed, err := h.Service.Delete(c.UserContext(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing deleted successfully", fiber.Map{"id": id, "storage": removed}, nil)
}

// GET /api/v1/listings/:id/rental-quote?start_date=&end_date=
func (h *Handlers) Quote(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	start, end := c.Query("start_date"), c.Query("end_date")
	if start == "" || end == "" {
		return response.Error(c, "start_date and end_date are required", fiber.StatusBadRequest, nil)
	}
	period, err := h.Pricing.Quote(c.UserContext(), id, start, end)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Rental price calculated", period, nil)
}
