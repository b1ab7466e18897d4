package listings

import (
	"fmt"
	"testing"

	listsvc "wardrobe-backend/internal/application/listings"
	"wardrobe-backend/internal/application/pricing"
	"wardrobe-backend/internal/infrastructure/database/dbtest"
	"wardrobe-backend/internal/interfaces/handlers/handlertest"
	"wardrobe-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T, userID uuid.UUID) *fiber.App {
	db := dbtest.Open(t)
	h := &Handlers{Service: &listsvc.Service{DB: db}, Pricing: &pricing.Service{DB: db}}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Get("/listings", h.List)
	app.Post("/listings/batch", h.Batch)
	app.Get("/listings/:id", h.Get)
	app.Get("/listings/:id/rental-quote", h.Quote)
	auth := app.Group("", handlertest.AsUser(userID))
	auth.Post("/listings", h.Create)
	auth.Get("/me/listings", h.Mine)
	auth.Patch("/listings/:id", h.Update)
	auth.Delete("/listings/:id", h.Delete)
	return app
}

func create(t *testing.T, app *fiber.App, body map[string]interface{}) string {
	t.Helper()
	code, out := handlertest.Do(t, app, "POST", "/listings", body)
	require.Equal(t, fiber.StatusCreated, code, out)
	listing := out.Data()["listing"].(map[string]interface{})
	return listing["id"].(string)
}

func rental() map[string]interface{} {
	return map[string]interface{}{
		"title":        "Velvet blazer",
		"brand":        "Acne",
		"size":         "S",
		"daily_price":  20,
		"weekly_price": 100,
		"listing_type": "Rent",
		"tags":         []string{"Velvet", "party"},
		"images":       []map[string]string{{"image_url": "https://cdn/a.jpg"}},
	}
}

func TestCreateAndGet(t *testing.T) {
	app := setupApp(t, uuid.New())
	id := create(t, app, rental())

	code, out := handlertest.Do(t, app, "GET", "/listings/"+id, nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Velvet blazer", out.Data()["title"])
	assert.Len(t, out.Data()["tags"], 2)
	price := out["metadata"].(map[string]interface{})["price"].(map[string]interface{})
	assert.Equal(t, "daily", price["kind"])

	code, _ = handlertest.Do(t, app, "GET", "/listings/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, code)
	code, _ = handlertest.Do(t, app, "GET", "/listings/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestCreate_Validation(t *testing.T) {
	app := setupApp(t, uuid.New())
	body := rental()
	body["listing_type"] = "Lease"
	delete(body, "title")

	code, out := handlertest.Do(t, app, "POST", "/listings", body)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", out.Message())
	assert.Contains(t, out.Details(), "title")
	assert.Contains(t, out.Details(), "listing_type")

	body = rental()
	body["daily_price"] = 0
	code, out = handlertest.Do(t, app, "POST", "/listings", body)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, listsvc.ErrInvalidPrice.Error(), out.Message())
}

func TestList_FiltersAndPaginates(t *testing.T) {
	app := setupApp(t, uuid.New())
	create(t, app, rental())
	buy := rental()
	buy["listing_type"] = "Buy"
	buy["title"] = "Trench coat"
	create(t, app, buy)

	code, out := handlertest.Do(t, app, "GET", "/listings?type=Rent", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out.List(), 1)
	meta := out["metadata"].(map[string]interface{})
	assert.EqualValues(t, 1, meta["total"])

	code, out = handlertest.Do(t, app, "GET", "/listings?q=trench&limit=5", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out.List(), 1)
	assert.EqualValues(t, 5, out["metadata"].(map[string]interface{})["limit"])

	code, _ = handlertest.Do(t, app, "GET", "/listings?type=Lease", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, out = handlertest.Do(t, app, "GET", "/me/listings", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out.List(), 2)
}

func TestBatch(t *testing.T) {
	app := setupApp(t, uuid.New())
	id := create(t, app, rental())

	code, out := handlertest.Do(t, app, "POST", "/listings/batch", map[string]interface{}{"ids": []string{id, uuid.NewString()}})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out.List(), 1)

	code, _ = handlertest.Do(t, app, "POST", "/listings/batch", map[string]interface{}{"ids": []string{}})
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestUpdateAndDelete_OwnerOnly(t *testing.T) {
	owner := uuid.New()
	db := dbtest.Open(t)
	h := &Handlers{Service: &listsvc.Service{DB: db}, Pricing: &pricing.Service{DB: db}}
	mk := func(user uuid.UUID) *fiber.App {
		app := fiber.New()
		app.Use(handlertest.AsUser(user))
		app.Post("/listings", h.Create)
		app.Patch("/listings/:id", h.Update)
		app.Delete("/listings/:id", h.Delete)
		return app
	}
	ownerApp, otherApp := mk(owner), mk(uuid.New())
	id := create(t, ownerApp, rental())

	code, _ := handlertest.Do(t, otherApp, "PATCH", "/listings/"+id, map[string]interface{}{"title": "Mine now"})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, out := handlertest.Do(t, ownerApp, "PATCH", "/listings/"+id, map[string]interface{}{"title": "Velvet blazer, navy"})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Velvet blazer, navy", out.Data()["title"])

	code, out = handlertest.Do(t, ownerApp, "PATCH", "/listings/"+id, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, listsvc.ErrNoChanges.Error(), out.Message())

	code, _ = handlertest.Do(t, otherApp, "DELETE", "/listings/"+id, nil)
	assert.Equal(t, fiber.StatusForbidden, code)
	code, _ = handlertest.Do(t, ownerApp, "DELETE", "/listings/"+id, nil)
	assert.Equal(t, fiber.StatusOK, code)
	code, _ = handlertest.Do(t, ownerApp, "DELETE", "/listings/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestQuote(t *testing.T) {
	app := setupApp(t, uuid.New())
	id := create(t, app, rental())

	code, out := handlertest.Do(t, app, "GET", fmt.Sprintf("/listings/%s/rental-quote?start_date=2024-06-01&end_date=2024-06-11", id), nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 10, out.Data()["total_days"])
	assert.EqualValues(t, 160, out.Data()["total_price"])

	code, _ = handlertest.Do(t, app, "GET", "/listings/"+id+"/rental-quote?start_date=2024-06-01", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = handlertest.Do(t, app, "GET", "/listings/"+id+"/rental-quote?start_date=yesterday&end_date=2024-06-11", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
