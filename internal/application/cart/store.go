package cart

import (
	"context"
	"encoding/json"
	"errors"

	"wardrobe-backend/internal/application/pricing"
	"wardrobe-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrNotPurchasable = errors.New("Trade listings cannot be added to the cart")
	ErrUnavailable    = errors.New("Listing is not available")
)

// Store is the per-user cart. With a nil Repository every operation is a no-op that returns nil,
// the same as having no cart at all.
type Store struct {
	Repo Repository
}

func NewStore(repo Repository) *Store {
	return &Store{Repo: repo}
}

// Get returns the user's cart, or nil if there is none. A cart that fails to parse is logged and
// treated as absent.
func (s *Store) Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	if s.Repo == nil {
		return nil, nil
	}
	b, err := s.Repo.Load(ctx, userID)
	if err != nil || b == nil {
		return nil, err
	}
	var c domain.Cart
	if err := json.Unmarshal(b, &c); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("discarding unreadable cart")
		return nil, nil
	}
	if c.UserID != userID {
		log.Warn().Str("user_id", userID.String()).Str("cart_user_id", c.UserID.String()).Msg("cart owner mismatch")
		return nil, nil
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	return &c, nil
}

// Save overwrites the stored cart of c.UserID.
func (s *Store) Save(ctx context.Context, c *domain.Cart) error {
	if s.Repo == nil || c == nil {
		return nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.Repo.Store(ctx, c.UserID, b)
}

// Add puts quantity of listing in the cart. A listing already in the cart has its quantity
// increased; otherwise a snapshot of listing is appended. Quantities below 1 count as 1.
func (s *Store) Add(ctx context.Context, userID uuid.UUID, listing domain.Listing, quantity int) (*domain.Cart, error) {
	if s.Repo == nil {
		return nil, nil
	}
	if quantity < 1 {
		quantity = 1
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &domain.Cart{UserID: userID, Items: []domain.CartItem{}}
	}

	found := false
	for i := range c.Items {
		if c.Items[i].ListingID == listing.ID {
			c.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		c.Items = append(c.Items, domain.CartItem{ListingID: listing.ID, Quantity: quantity, Listing: listing})
	}
	c.Total = Total(c.Items)

	if err := s.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove drops listingID from the cart. The cart is kept even when it becomes empty.
func (s *Store) Remove(ctx context.Context, userID, listingID uuid.UUID) (*domain.Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil || c == nil {
		return nil, err
	}
	kept := make([]domain.CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ListingID != listingID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.Total = Total(c.Items)
	if err := s.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) Clear(ctx context.Context, userID uuid.UUID) error {
	if s.Repo == nil {
		return nil
	}
	return s.Repo.Delete(ctx, userID)
}

// Total sums unit price times quantity. For Rent, Buy and Sell listings the unit price is
// daily_price; trade listings add nothing.
func Total(items []domain.CartItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(pricing.Subtotal(it.Listing, it.Quantity))
	}
	return sum.Round(2).InexactFloat64()
}

// CheckAddable rejects listings that cannot be bought through checkout.
func CheckAddable(l domain.Listing) error {
	if !pricing.PriceOf(l).Purchasable() {
		return ErrNotPurchasable
	}
	if !l.IsAvailable {
		return ErrUnavailable
	}
	return nil
}
