package profile

import (
	"testing"

	profilesvc "wardrobe-backend/internal/application/profile"
	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/infrastructure/database/dbtest"
	"wardrobe-backend/internal/interfaces/handlers/handlertest"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T, userID uuid.UUID) (*fiber.App, *gorm.DB) {
	db := dbtest.Open(t)
	h := &Handlers{Service: &profilesvc.Service{DB: db}}
	app := fiber.New()
	app.Use(handlertest.AsUser(userID))
	app.Get("/profile", h.Me)
	app.Patch("/profile", h.Update)
	app.Get("/profiles/:id", h.Get)
	return app, db
}

func TestProfile_MeCreatesRow(t *testing.T) {
	userID := uuid.New()
	app, db := setup(t, userID)

	code, out := handlertest.Do(t, app, "GET", "/profile", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "test@example.com", out.Data()["email"])

	var count int64
	require.NoError(t, db.Model(&domain.Profile{}).Where("id = ?", userID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProfile_Update(t *testing.T) {
	userID := uuid.New()
	app, db := setup(t, userID)
	require.NoError(t, db.Create(&domain.Profile{ID: userID, Email: "a@example.com"}).Error)

	code, out := handlertest.Do(t, app, "PATCH", "/profile", map[string]string{"username": "ada", "bio": "vintage only"})
	require.Equal(t, fiber.StatusOK, code, out)
	assert.Equal(t, "ada", out.Data()["username"])
	assert.Equal(t, "vintage only", out.Data()["bio"])

	code, out = handlertest.Do(t, app, "GET", "/profiles/"+userID.String(), nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ada", out.Data()["username"])
	assert.NotContains(t, out.Data(), "email")
}

func TestProfile_UpdateRejects(t *testing.T) {
	userID := uuid.New()
	app, db := setup(t, userID)
	taken := "grace"
	require.NoError(t, db.Create(&domain.Profile{ID: userID}).Error)
	require.NoError(t, db.Create(&domain.Profile{ID: uuid.New(), Username: &taken}).Error)

	code, out := handlertest.Do(t, app, "PATCH", "/profile", map[string]string{"username": "a!"})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, out.Details(), "username")

	code, out = handlertest.Do(t, app, "PATCH", "/profile", map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, profilesvc.ErrNoChanges.Error(), out.Message())

	code, _ = handlertest.Do(t, app, "PATCH", "/profile", map[string]string{"username": "grace"})
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = handlertest.Do(t, app, "GET", "/profiles/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}
