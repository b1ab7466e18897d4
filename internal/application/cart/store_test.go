package cart

import (
	"context"
	"testing"
	"time"

	"wardrobe-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rentListing(price float64) domain.Listing {
	return domain.Listing{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Title:       "Silk dress",
		DailyPrice:  price,
		IsAvailable: true,
		ListingType: domain.ListingTypeRent,
	}
}

func redisRepo(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return &RedisRepository{RDB: rdb, TTL: time.Hour}, mr
}

// Each test runs against both backends.
func backends(t *testing.T) map[string]Repository {
	r, _ := redisRepo(t)
	return map[string]Repository{"memory": NewMemoryRepository(), "redis": r}
}

func TestAdd_SameListingTwiceIncrementsQuantity(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewStore(repo)
			ctx := context.Background()
			user := uuid.New()
			l := rentListing(45)

			_, err := s.Add(ctx, user, l, 1)
			require.NoError(t, err)
			c, err := s.Add(ctx, user, l, 1)
			require.NoError(t, err)

			require.Len(t, c.Items, 1)
			assert.Equal(t, 2, c.Items[0].Quantity)
			assert.Equal(t, 90.0, c.Total)
		})
	}
}

func TestAdd_ZeroQuantityCountsAsOne(t *testing.T) {
	s := NewStore(NewMemoryRepository())
	c, err := s.Add(context.Background(), uuid.New(), rentListing(10), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 10.0, c.Total)
}

func TestRemove_RecomputesTotalAndKeepsEmptyCart(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewStore(repo)
			ctx := context.Background()
			user := uuid.New()
			a, b := rentListing(10), rentListing(25.5)

			_, err := s.Add(ctx, user, a, 2)
			require.NoError(t, err)
			_, err = s.Add(ctx, user, b, 1)
			require.NoError(t, err)

			c, err := s.Remove(ctx, user, a.ID)
			require.NoError(t, err)
			require.Len(t, c.Items, 1)
			assert.Equal(t, 25.5, c.Total)

			c, err = s.Remove(ctx, user, b.ID)
			require.NoError(t, err)
			assert.Empty(t, c.Items)
			assert.Equal(t, 0.0, c.Total)

			stored, err := s.Get(ctx, user)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Empty(t, stored.Items)
		})
	}
}

func TestRemove_NoCart(t *testing.T) {
	s := NewStore(NewMemoryRepository())
	c, err := s.Remove(context.Background(), uuid.New(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestSaveGet_RoundTripIsScopedToUser(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewStore(repo)
			ctx := context.Background()
			alice, bob := uuid.New(), uuid.New()
			l := rentListing(30)
			in := &domain.Cart{
				UserID: alice,
				Items:  []domain.CartItem{{ListingID: l.ID, Quantity: 3, Listing: l}},
				Total:  90,
			}
			require.NoError(t, s.Save(ctx, in))

			out, err := s.Get(ctx, alice)
			require.NoError(t, err)
			require.NotNil(t, out)
			assert.Equal(t, in.UserID, out.UserID)
			assert.Equal(t, in.Total, out.Total)
			require.Len(t, out.Items, 1)
			assert.Equal(t, l.ID, out.Items[0].ListingID)
			assert.Equal(t, 3, out.Items[0].Quantity)
			assert.Equal(t, l.Title, out.Items[0].Listing.Title)

			other, err := s.Get(ctx, bob)
			require.NoError(t, err)
			assert.Nil(t, other)
		})
	}
}

func TestClear(t *testing.T) {
	s := NewStore(NewMemoryRepository())
	ctx := context.Background()
	user := uuid.New()
	_, err := s.Add(ctx, user, rentListing(5), 1)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx, user))
	c, err := s.Get(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestGet_UnreadableCartIsTreatedAsAbsent(t *testing.T) {
	repo, mr := redisRepo(t)
	user := uuid.New()
	require.NoError(t, mr.Set(Key(user), "{not json"))

	c, err := NewStore(repo).Get(context.Background(), user)
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestRedisRepository_KeyAndTTL(t *testing.T) {
	repo, mr := redisRepo(t)
	user := uuid.New()
	_, err := NewStore(repo).Add(context.Background(), user, rentListing(5), 1)
	require.NoError(t, err)

	assert.True(t, mr.Exists("cart_"+user.String()))
	assert.Equal(t, time.Hour, mr.TTL("cart_"+user.String()))
}

func TestNilRepositoryIsNoop(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	user := uuid.New()

	c, err := s.Add(ctx, user, rentListing(5), 1)
	assert.NoError(t, err)
	assert.Nil(t, c)

	c, err = s.Get(ctx, user)
	assert.NoError(t, err)
	assert.Nil(t, c)

	assert.NoError(t, s.Save(ctx, &domain.Cart{UserID: user}))
	assert.NoError(t, s.Clear(ctx, user))
}

func TestTotal_UsesDailyPriceAsFlatPrice(t *testing.T) {
	buy := rentListing(80)
	buy.ListingType = domain.ListingTypeBuy
	items := []domain.CartItem{
		{ListingID: buy.ID, Quantity: 1, Listing: buy},
		{Quantity: 2, Listing: rentListing(12.25)},
	}
	assert.Equal(t, 104.5, Total(items))
}

func TestCheckAddable(t *testing.T) {
	l := rentListing(10)
	assert.NoError(t, CheckAddable(l))

	l.IsAvailable = false
	assert.ErrorIs(t, CheckAddable(l), ErrUnavailable)

	trade := rentListing(10)
	trade.ListingType = domain.ListingTypeTrade
	assert.ErrorIs(t, CheckAddable(trade), ErrNotPurchasable)
}
