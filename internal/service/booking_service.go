package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"carrental/internal/domain"
	"carrental/internal/events"
	"carrental/internal/metrics"
	"carrental/internal/models"
	"carrental/internal/store"

	"github.com/rs/zerolog"
)

var _ domain.BookingService = (*BookingService)(nil)

type BookingService struct {
	store    *store.Store
	catalog  *CatalogService
	eventBus domain.EventPublisher
	pricing  Pricing
	logger   *zerolog.Logger
}

func NewBookingService(st *store.Store, catalog *CatalogService, eventBus domain.EventPublisher, pricing Pricing, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:    st,
		catalog:  catalog,
		eventBus: publisherOrNop(eventBus),
		pricing:  pricing,
		logger:   logger,
	}
}

func (s *BookingService) Quote(carID int64, rentFrom, rentTo string) (models.Quote, error) {
	car, err := s.catalog.GetCar(carID)
	if err != nil {
		return models.Quote{}, err
	}
	return s.pricing.Quote(car.Price, rentFrom, rentTo)
}

// Checkout reserves a car for the account. The inventory decrement and the
// new booking are committed together or not at all.
func (s *BookingService) Checkout(ctx context.Context, req models.CheckoutRequest) (models.Booking, error) {
	booking, err := s.checkout(ctx, req)
	if err != nil {
		metrics.IncCheckout(checkoutResult(err))
		return models.Booking{}, err
	}
	metrics.IncCheckout("ok")

	car, _ := s.catalog.GetCar(booking.CarID)
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("car_id", booking.CarID).
		Str("user_id", booking.UserID).
		Float64("total", booking.Total).
		Msg("booking created")
	s.publish(events.EventBookingCreated, booking, car.DisplayName(), "")
	return booking, nil
}

func (s *BookingService) checkout(ctx context.Context, req models.CheckoutRequest) (models.Booking, error) {
	car, err := s.catalog.GetCar(req.CarID)
	if err != nil {
		return models.Booking{}, err
	}
	quote, err := s.pricing.Quote(car.Price, req.RentFrom, req.RentTo)
	if err != nil {
		return models.Booking{}, err
	}
	if req.Account == nil || req.Account.ID == "" {
		return models.Booking{}, domain.ErrSessionRequired
	}
	last4, err := lastFour(req.CardNumber)
	if err != nil {
		return models.Booking{}, err
	}
	var placeID *string
	if req.PlaceID != "" {
		if _, ok := s.catalog.GetPlace(req.PlaceID); !ok {
			return models.Booking{}, fmt.Errorf("%w: unknown place %q", domain.ErrInvalidInput, req.PlaceID)
		}
		id := req.PlaceID
		placeID = &id
	}

	var created models.Booking
	err = s.store.Update(ctx, func(snap *models.Snapshot) error {
		if snap.FindAccount(req.Account.ID) < 0 {
			return domain.ErrSessionRequired
		}
		if err := s.catalog.takeUnit(snap, car.ID); err != nil {
			return err
		}

		penalty := 0.0
		b := models.Booking{
			ID:           nextBookingID(snap),
			CarID:        car.ID,
			UserID:       req.Account.ID,
			DateTimeFrom: req.RentFrom,
			DateTo:       req.RentTo,
			Last4CC:      last4,
			Total:        quote.Total,
			Penalty:      &penalty,
			Status:       models.StatusReserved,
			CheckedOutAt: s.store.Now().UnixMilli(),
			PlaceID:      placeID,
		}
		snap.Bookings = append(snap.Bookings, b)
		created = b.Clone()
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	return created, nil
}

func (s *BookingService) GetBooking(id int64) (models.Booking, error) {
	var (
		booking models.Booking
		found   bool
	)
	s.store.View(func(snap *models.Snapshot) {
		if i := snap.FindBooking(id); i >= 0 {
			booking = snap.Bookings[i].Clone()
			found = true
		}
	})
	if !found {
		return models.Booking{}, fmt.Errorf("%w: %d", domain.ErrBookingNotFound, id)
	}
	return booking, nil
}

// UpdateStatus moves a booking along the lifecycle.
func (s *BookingService) UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	_, err := s.transition(ctx, "", id, status)
	return err
}

func (s *BookingService) Collect(ctx context.Context, accountID string, id int64) (models.Booking, error) {
	return s.transition(ctx, accountID, id, models.StatusCollected)
}

func (s *BookingService) Return(ctx context.Context, accountID string, id int64) (models.Booking, error) {
	return s.transition(ctx, accountID, id, models.StatusReturned)
}

func (s *BookingService) Cancel(ctx context.Context, accountID string, id int64) (models.Booking, error) {
	return s.transition(ctx, accountID, id, models.StatusCancelled)
}

// transition applies a status change. A non-empty accountID restricts it to
// that account's bookings; others look missing.
func (s *BookingService) transition(ctx context.Context, accountID string, id int64, status models.BookingStatus) (models.Booking, error) {
	if !status.Valid() {
		return models.Booking{}, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, status)
	}

	var (
		updated models.Booking
		prev    models.BookingStatus
	)
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		i := snap.FindBooking(id)
		if i < 0 || (accountID != "" && snap.Bookings[i].UserID != accountID) {
			return fmt.Errorf("%w: %d", domain.ErrBookingNotFound, id)
		}
		b := &snap.Bookings[i]
		prev = b.Status
		if err := s.applyStatus(snap, b, status); err != nil {
			return err
		}
		updated = b.Clone()
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	s.statusChanged(events.EventBookingStatusChanged, updated, prev)
	return updated, nil
}

// AdminUpdate applies an admin console edit. Inspected and refunded bookings
// are closed and reject any change.
func (s *BookingService) AdminUpdate(ctx context.Context, id int64, update models.AdminUpdate) (models.Booking, error) {
	if update.Status != nil && !update.Status.Valid() {
		return models.Booking{}, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, *update.Status)
	}

	var (
		updated models.Booking
		prev    models.BookingStatus
	)
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		i := snap.FindBooking(id)
		if i < 0 {
			return fmt.Errorf("%w: %d", domain.ErrBookingNotFound, id)
		}
		b := &snap.Bookings[i]
		prev = b.Status
		if b.Status.Final() {
			return fmt.Errorf("%w: booking %d is %s", domain.ErrIllegalTransition, id, b.Status)
		}

		if update.Status != nil && *update.Status != b.Status {
			if err := s.applyStatus(snap, b, *update.Status); err != nil {
				return err
			}
		}
		if penalty, ok := parsePenalty(update.Penalty); ok {
			b.Penalty = &penalty
		}
		if update.Comment != nil {
			comment := *update.Comment
			b.Comment = &comment
		}
		if b.Status == models.StatusRefunded {
			b.Total = 0
		}
		updated = b.Clone()
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	if updated.Status != prev {
		metrics.IncTransition(string(updated.Status))
	}
	s.logger.Info().
		Int64("booking_id", id).
		Str("status", string(updated.Status)).
		Float64("penalty", updated.PenaltyAmount()).
		Msg("booking updated by admin")
	car, _ := s.catalog.GetCar(updated.CarID)
	s.publish(events.EventBookingAdminUpdated, updated, car.DisplayName(), prev)
	return updated, nil
}

// ListForAccount yields the account's bookings, active ones first, then by
// start date. Every iteration reads the current state.
func (s *BookingService) ListForAccount(accountID string) iter.Seq[models.Booking] {
	return func(yield func(models.Booking) bool) {
		var bookings []models.Booking
		s.store.View(func(snap *models.Snapshot) {
			for _, b := range snap.Bookings {
				if b.UserID == accountID {
					bookings = append(bookings, b.Clone())
				}
			}
		})
		slices.SortStableFunc(bookings, func(a, b models.Booking) int {
			if c := cmp.Compare(a.Status.Rank(), b.Status.Rank()); c != 0 {
				return c
			}
			return a.StartTime().Compare(b.StartTime())
		})
		for _, b := range bookings {
			if !yield(b) {
				return
			}
		}
	}
}

// ListFiltered returns matching bookings in ledger order.
func (s *BookingService) ListFiltered(filter models.BookingFilter) []models.Booking {
	out := []models.Booking{}
	s.store.View(func(snap *models.Snapshot) {
		for _, b := range snap.Bookings {
			if filter.Match(b) {
				out = append(out, b.Clone())
			}
		}
	})
	return out
}

func (s *BookingService) applyStatus(snap *models.Snapshot, b *models.Booking, to models.BookingStatus) error {
	if !CanTransition(b.Status, to) {
		return illegalTransition(b.Status, to)
	}
	if to == models.StatusCancelled && b.Status == models.StatusReserved {
		s.catalog.restock(snap, b.CarID)
	}
	b.Status = to
	if to == models.StatusRefunded {
		b.Total = 0
	}
	return nil
}

func (s *BookingService) statusChanged(eventType string, b models.Booking, prev models.BookingStatus) {
	metrics.IncTransition(string(b.Status))
	s.logger.Info().
		Int64("booking_id", b.ID).
		Str("from", string(prev)).
		Str("to", string(b.Status)).
		Msg("booking status changed")
	car, _ := s.catalog.GetCar(b.CarID)
	s.publish(eventType, b, car.DisplayName(), prev)
}

func (s *BookingService) publish(eventType string, b models.Booking, carName string, prev models.BookingStatus) {
	payload := events.BookingEventPayload{
		BookingID:  b.ID,
		CarID:      b.CarID,
		CarName:    carName,
		UserID:     b.UserID,
		Status:     string(b.Status),
		PrevStatus: string(prev),
		From:       b.DateTimeFrom,
		To:         b.DateTo,
		Total:      b.Total,
		Penalty:    b.PenaltyAmount(),
		At:         s.store.Now(),
	}
	if b.Comment != nil {
		payload.Comment = *b.Comment
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Int64("booking_id", b.ID).Msg("publish event")
	}
}

// nextBookingID is the ledger length, bumped past any higher id a migrated
// snapshot may carry.
func nextBookingID(snap *models.Snapshot) int64 {
	next := int64(len(snap.Bookings))
	for _, b := range snap.Bookings {
		if b.ID >= next {
			next = b.ID + 1
		}
	}
	return next
}

// lastFour keeps the last four digits of the card number. Spaces and dashes
// are ignored.
func lastFour(card string) (string, error) {
	digits := make([]rune, 0, len(card))
	for _, r := range card {
		switch {
		case unicode.IsDigit(r):
			digits = append(digits, r)
		case r == ' ' || r == '-':
		default:
			return "", fmt.Errorf("%w: card number", domain.ErrInvalidInput)
		}
	}
	if len(digits) < 4 {
		return "", fmt.Errorf("%w: card number", domain.ErrInvalidInput)
	}
	return string(digits[len(digits)-4:]), nil
}

// parsePenalty accepts only finite positive amounts.
func parsePenalty(value string) (float64, bool) {
	p, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, false
	}
	return p, true
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrCarNotFound):
		return "car_not_found"
	case errors.Is(err, domain.ErrInvalidDateRange):
		return "invalid_dates"
	case errors.Is(err, domain.ErrSessionRequired):
		return "no_session"
	case errors.Is(err, domain.ErrOutOfInventory):
		return "out_of_inventory"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

type nopPublisher struct{}

func (nopPublisher) PublishJSON(string, interface{}) error { return nil }

func publisherOrNop(p domain.EventPublisher) domain.EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
