package service

import (
	"context"
	"testing"
	"time"

	"carrental/internal/events"
	"carrental/internal/models"
	"carrental/internal/repository"
	"carrental/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	repo     *repository.MemorySnapshotRepository
	store    *store.Store
	bus      *events.EventBus
	catalog  *CatalogService
	accounts *AccountService
	bookings *BookingService
	clock    time.Time
}

func (e *testEnv) now() time.Time { return e.clock }

func testCars() []models.Car {
	return []models.Car{
		{ID: 0, Brand: "Toyota", Model: "Corolla", Price: 120, Quantity: 2},
		{ID: 1, Brand: "Honda", Model: "Civic", Price: 110, Quantity: 1},
		{ID: 2, Brand: "Tesla", Model: "Model 3", Price: 200, Quantity: 0},
	}
}

func testPlaces() []models.Place {
	return []models.Place{{ID: "hq", Name: "Head Office", Latitude: 1.29, Longitude: 103.85}}
}

func newTestEnv(t *testing.T, restockOnCancel bool) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	env := &testEnv{
		repo:  repository.NewMemorySnapshotRepository(),
		bus:   events.NewEventBus(),
		clock: testNow,
	}
	env.store = store.New(env.repo, &logger, store.WithClock(env.now))
	env.catalog = NewCatalogService(env.store, testCars(), testPlaces(), restockOnCancel, &logger)
	env.accounts = NewAccountService(env.store, env.bus, &logger)
	env.bookings = NewBookingService(env.store, env.catalog, env.bus, NewPricing(models.DefaultSurchargeRate), &logger)

	require.NoError(t, env.store.Load(context.Background()))
	require.NoError(t, env.catalog.Seed(context.Background()))
	return env
}

func (e *testEnv) signUp(t *testing.T, name string) models.Account {
	t.Helper()
	acc, err := e.accounts.SignUp(context.Background(), name, name+"@example.com", "pw")
	require.NoError(t, err)
	return acc
}

func (e *testEnv) checkout(t *testing.T, acc models.Account, carID int64, from, to string) models.Booking {
	t.Helper()
	b, err := e.bookings.Checkout(context.Background(), models.CheckoutRequest{
		CarID:      carID,
		Account:    &acc,
		RentFrom:   from,
		RentTo:     to,
		CardNumber: "4111 1111 1111 1234",
	})
	require.NoError(t, err)
	return b
}
