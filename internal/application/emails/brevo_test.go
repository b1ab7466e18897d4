package emails

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wardrobe-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(t *testing.T) *domain.Order {
	o := &domain.Order{
		ID:          uuid.MustParse("3f2c9a10-0000-4000-8000-000000000001"),
		TotalAmount: 64.5,
		Currency:    "usd",
		Items: []domain.OrderItem{
			{ListingID: uuid.New(), Quantity: 1, Price: 45, Subtotal: 45},
			{ListingID: uuid.New(), Quantity: 1, Price: 19.5, Subtotal: 19.5},
		},
	}
	require.NoError(t, o.SetShipping(domain.ShippingDetails{Name: "Ada <Lovelace>", AddressLine1: "1 Main St", City: "Leeds", PostalCode: "LS1", Country: "GB"}))
	return o
}

func TestRenderOrderConfirmation(t *testing.T) {
	html, err := renderOrderConfirmation("", order(t))
	require.NoError(t, err)
	assert.Contains(t, html, "Thanks for your order, there!")
	assert.Contains(t, html, "3F2C9A10")
	assert.Contains(t, html, "64.50 USD")
	assert.Contains(t, html, "19.50 USD")
	assert.Contains(t, html, "Ada &lt;Lovelace&gt;")
	assert.NotContains(t, html, "<Lovelace>")
}

func TestSendOrderConfirmation_PostsToBrevo(t *testing.T) {
	var got BrevoSendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k1", Endpoint: srv.URL}
	require.NoError(t, c.SendOrderConfirmation(context.Background(), "ada@example.com", "Ada", order(t)))
	assert.Equal(t, "k1", apiKey)
	require.Len(t, got.To, 1)
	assert.Equal(t, "ada@example.com", got.To[0].Email)
	assert.Equal(t, "noreply@wardrobe.app", got.Sender.Email)
	assert.Contains(t, got.HTMLContent, "Thanks for your order, Ada!")
}

func TestSendOrderConfirmation_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "bad", Endpoint: srv.URL}
	err := c.SendOrderConfirmation(context.Background(), "ada@example.com", "Ada", order(t))
	assert.EqualError(t, err, "brevo send failed: status 401")

	noop := &BrevoClient{Endpoint: srv.URL}
	assert.NoError(t, noop.SendOrderConfirmation(context.Background(), "ada@example.com", "Ada", order(t)))
}
