package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"wardrobe-backend/internal/pkg/retry"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// ErrNotConfigured is returned when no Stripe secret key is set.
var ErrNotConfigured = errors.New("Stripe integration pending")

// Intent statuses we act on. Stripe has more; they pass through unchanged.
const (
	StatusSucceeded             = "succeeded"
	StatusProcessing            = "processing"
	StatusRequiresPaymentMethod = "requires_payment_method"
)

// Intent is the part of a payment intent the checkout needs.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Gateway abstracts the payment processor for testability.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

// StripeGateway uses the Stripe Go SDK with a per-instance client instead of the global key.
type StripeGateway struct {
	SecretKey string
	client    *paymentintent.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	g := &StripeGateway{SecretKey: secretKey}
	if secretKey != "" {
		g.client = &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}
	}
	return g
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := g.client.New(params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.client.Get(id, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

func wrapStripeError(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("stripe: %w: %s", retry.ErrRateLimited, serr.Msg)
	}
	return fmt.Errorf("stripe: %w", err)
}
