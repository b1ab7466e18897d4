package domain

import "github.com/google/uuid"

// Cart is a user's pending selection. It is not a table: it lives in the cart store as
// {user_id, items, total} and Total is always derived from Items.
type Cart struct {
	UserID uuid.UUID  `json:"user_id"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
}

// CartItem holds a listing snapshot taken when the item was added. It is not refreshed,
// so price and availability may drift from the live listing.
type CartItem struct {
	ListingID uuid.UUID `json:"listing_id"`
	Quantity  int       `json:"quantity"`
	Listing   Listing   `json:"listing"`
}

// ListingIDs returns the ids of all items in cart order.
func (c *Cart) ListingIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ListingID)
	}
	return ids
}
