package domain

import (
	"context"
	"iter"

	"carrental/internal/models"
)

// SnapshotRepository is an opaque blob store for the encoded snapshot.
// Load returns nil, nil when nothing has been saved yet.
type SnapshotRepository interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type CatalogService interface {
	ListCars() []models.Car
	GetCar(id int64) (models.Car, error)
	AvailableQty(carID int64) int
	DecrementQty(ctx context.Context, carID int64) error
	ListPlaces() []models.Place
	GetPlace(id string) (models.Place, bool)
}

type AccountService interface {
	SignUp(ctx context.Context, name, email, password string) (models.Account, error)
	Login(ctx context.Context, nameOrEmail, password string) (models.Account, error)
	Logout(ctx context.Context) error
	CurrentAccount() (models.Account, bool)
	Accounts() []models.Account
}

type BookingService interface {
	Quote(carID int64, rentFrom, rentTo string) (models.Quote, error)
	Checkout(ctx context.Context, req models.CheckoutRequest) (models.Booking, error)
	GetBooking(id int64) (models.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error
	AdminUpdate(ctx context.Context, id int64, update models.AdminUpdate) (models.Booking, error)
	ListForAccount(accountID string) iter.Seq[models.Booking]
	ListFiltered(filter models.BookingFilter) []models.Booking
}

type AdminService interface {
	Authenticate(username, password string) error
}
