package cart

import (
	"testing"

	cartsvc "wardrobe-backend/internal/application/cart"
	listsvc "wardrobe-backend/internal/application/listings"
	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/infrastructure/database/dbtest"
	"wardrobe-backend/internal/interfaces/handlers/handlertest"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	app  *fiber.App
	db   *gorm.DB
	mr   *miniredis.Miniredis
	user uuid.UUID
}

func setup(t *testing.T) *fixture {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	db := dbtest.Open(t)
	h := &Handlers{
		Store:    cartsvc.NewStore(&cartsvc.RedisRepository{RDB: rdb}),
		Listings: &listsvc.Service{DB: db},
	}
	user := uuid.New()
	app := fiber.New()
	app.Use(handlertest.AsUser(user))
	app.Get("/cart", h.Get)
	app.Post("/cart/items", h.AddItem)
	app.Delete("/cart/items/:listing_id", h.RemoveItem)
	app.Delete("/cart", h.Clear)
	return &fixture{app: app, db: db, mr: mr, user: user}
}

func (f *fixture) listing(t *testing.T, price float64, typ domain.ListingType, available bool) string {
	t.Helper()
	l := &domain.Listing{UserID: uuid.New(), Title: "Item", DailyPrice: price, ListingType: typ, IsAvailable: true}
	require.NoError(t, f.db.Create(l).Error)
	if !available {
		require.NoError(t, f.db.Model(l).Update("is_available", false).Error)
	}
	return l.ID.String()
}

func TestCart_AddRemoveClear(t *testing.T) {
	f := setup(t)
	dress := f.listing(t, 45, domain.ListingTypeRent, true)
	coat := f.listing(t, 104.5, domain.ListingTypeBuy, true)

	code, out := handlertest.Do(t, f.app, "GET", "/cart", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Empty(t, out.Data()["items"])
	assert.EqualValues(t, 0, out.Data()["total"])

	code, out = handlertest.Do(t, f.app, "POST", "/cart/items", map[string]interface{}{"listing_id": dress})
	assert.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 45, out.Data()["total"])

	_, out = handlertest.Do(t, f.app, "POST", "/cart/items", map[string]interface{}{"listing_id": dress, "quantity": 1})
	assert.EqualValues(t, 90, out.Data()["total"])
	assert.Len(t, out.Data()["items"], 1)

	_, out = handlertest.Do(t, f.app, "POST", "/cart/items", map[string]interface{}{"listing_id": coat})
	assert.EqualValues(t, 194.5, out.Data()["total"])
	assert.True(t, f.mr.Exists(cartsvc.Key(f.user)))

	code, out = handlertest.Do(t, f.app, "DELETE", "/cart/items/"+dress, nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 104.5, out.Data()["total"])

	code, _ = handlertest.Do(t, f.app, "DELETE", "/cart", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.False(t, f.mr.Exists(cartsvc.Key(f.user)))
}

func TestCart_RejectsTradeAndUnavailable(t *testing.T) {
	f := setup(t)
	trade := f.listing(t, 0, domain.ListingTypeTrade, true)
	gone := f.listing(t, 30, domain.ListingTypeRent, false)

	code, out := handlertest.Do(t, f.app, "POST", "/cart/items", map[string]interface{}{"listing_id": trade})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, cartsvc.ErrNotPurchasable.Error(), out.Message())

	code, _ = handlertest.Do(t, f.app, "POST", "/cart/items", map[string]interface{}{"listing_id": gone})
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = handlertest.Do(t, f.app, "POST", "/cart/items", map[string]interface{}{"listing_id": uuid.NewString()})
	assert.Equal(t, fiber.StatusNotFound, code)

	code, out = handlertest.Do(t, f.app, "POST", "/cart/items", map[string]interface{}{"quantity": 50})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, out.Details(), "listing_id")
	assert.Contains(t, out.Details(), "quantity")

	assert.False(t, f.mr.Exists(cartsvc.Key(f.user)))
}

func TestCart_StoreDown(t *testing.T) {
	f := setup(t)
	f.mr.SetError("LOADING redis is loading")
	code, out := handlertest.Do(t, f.app, "GET", "/cart", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
	assert.Equal(t, "Cart is temporarily unavailable", out.Message())
}
