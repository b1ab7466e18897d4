package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wardrobe-backend/internal/application/cart"
	"wardrobe-backend/internal/application/listings"
	"wardrobe-backend/internal/application/orders"
	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/infrastructure/database/dbtest"
	"wardrobe-backend/internal/infrastructure/messaging"
	"wardrobe-backend/internal/infrastructure/payments"
	"wardrobe-backend/internal/pkg/retry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeGateway stands in for Stripe: intents are created in requires_payment_method and
// confirmed by the test.
type fakeGateway struct {
	mu          sync.Mutex
	intents     map[string]*payments.Intent
	createErr   error
	createCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*payments.Intent{}}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	id := fmt.Sprintf("pi_test_%d", len(g.intents)+1)
	in := &payments.Intent{
		ID:           id,
		ClientSecret: id + "_secret_x",
		Status:       payments.StatusRequiresPaymentMethod,
		Amount:       amount,
		Currency:     currency,
		Metadata:     metadata,
	}
	g.intents[id] = in
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (*payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[id]
	if !ok {
		return nil, errors.New("No such payment_intent")
	}
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) setStatus(id, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = status
}

// flakyListings fails MarkUnavailable with err for the first failures calls (forever if failures < 0).
type flakyListings struct {
	next     AvailabilityUpdater
	err      error
	failures int
	calls    int
}

func (f *flakyListings) MarkUnavailable(ctx context.Context, id uuid.UUID) error {
	f.calls++
	if f.failures < 0 || f.calls <= f.failures {
		return f.err
	}
	return f.next.MarkUnavailable(ctx, id)
}

type failingRecorder struct {
	OrderRecorder
	err error
}

func (f failingRecorder) Record(context.Context, orders.RecordInput) (*domain.Order, bool, error) {
	return nil, false, f.err
}

var fastRetry = retry.Policy{MaxRetries: 2, Base: time.Millisecond}

type harness struct {
	db       *gorm.DB
	carts    *cart.Store
	gateway  *fakeGateway
	orders   *orders.Service
	listings *listings.Service
	events   *messaging.Recorder
	orch     *Orchestrator
}

func newHarness(t *testing.T) *harness {
	db := dbtest.Open(t)
	h := &harness{
		db:       db,
		carts:    cart.NewStore(cart.NewMemoryRepository()),
		gateway:  newFakeGateway(),
		orders:   &orders.Service{DB: db},
		listings: &listings.Service{DB: db, Retry: fastRetry},
		events:   &messaging.Recorder{},
	}
	h.orch = &Orchestrator{
		Carts:    h.carts,
		Gateway:  h.gateway,
		Orders:   h.orders,
		Listings: h.listings,
		Events:   h.events,
		Retry:    fastRetry,
		Currency: "usd",
	}
	return h
}

func (h *harness) listing(t *testing.T, price float64, typ domain.ListingType) domain.Listing {
	l := domain.Listing{
		UserID:      uuid.New(),
		Title:       "Sequin jacket",
		DailyPrice:  price,
		IsAvailable: true,
		ListingType: typ,
	}
	require.NoError(t, h.db.Create(&l).Error)
	return l
}

func (h *harness) isAvailable(t *testing.T, id uuid.UUID) bool {
	var l domain.Listing
	require.NoError(t, h.db.Where("id = ?", id).First(&l).Error)
	return l.IsAvailable
}

var testShipping = domain.ShippingDetails{
	Name: "Grace Hopper", AddressLine1: "7 Arlington Rd", City: "London", PostalCode: "NW1 7HB", Country: "GB",
}
