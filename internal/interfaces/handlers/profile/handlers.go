package profile

import (
	"errors"

	profilesvc "wardrobe-backend/internal/application/profile"
	"wardrobe-backend/internal/middleware"
	"wardrobe-backend/internal/pkg/response"
	"wardrobe-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *profilesvc.Service
}

func status(err error) int {
	switch {
	case errors.Is(err, profilesvc.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, profilesvc.ErrNoChanges):
		return fiber.StatusBadRequest
	case errors.Is(err, profilesvc.ErrUsernameTaken):
		return fiber.StatusConflict
	case errors.Is(err, profilesvc.ErrNotSaved):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	code := status(err)
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("profile request failed")
	}
	if code == fiber.StatusInternalServerError {
		return response.Internal(c)
	}
	if code == fiber.StatusBadGateway {
		return response.Error(c, profilesvc.ErrNotSaved.Error(), code, nil)
	}
	return response.Error(c, err.Error(), code, nil)
}

// GET /api/v1/profile
// The row is created from the session user if sign-in did not create it.
func (h *Handlers) Me(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	m, _ := middleware.GetUser(c).(map[string]interface{})
	email, _ := m["email"].(string)
	fullName, _ := m["full_name"].(string)
	p, err := h.Service.Ensure(c.UserContext(), userID, email, fullName)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Profile retrieved", p, nil)
}

// GET /api/v1/profiles/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid profile id", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Profile retrieved", fiber.Map{
		"id":         p.ID,
		"username":   p.Username,
		"full_name":  p.FullName,
		"bio":        p.Bio,
		"avatar_url": p.AvatarURL,
	}, nil)
}

// PATCH /api/v1/profile
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	var req profilesvc.UpdateInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadBody(c)
	}
	if fields := validation.Struct(req); fields != nil {
		return response.Invalid(c, fields)
	}
	p, err := h.Service.Update(c.UserContext(), userID, req)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Profile updated", p, nil)
}
