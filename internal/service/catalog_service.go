package service

import (
	"context"
	"fmt"

	"carrental/internal/domain"
	"carrental/internal/models"
	"carrental/internal/store"

	"github.com/rs/zerolog"
)

var _ domain.CatalogService = (*CatalogService)(nil)

// CatalogService serves the configured cars and places and owns the
// per-car quantity counters kept in the snapshot.
type CatalogService struct {
	store           *store.Store
	cars            []models.Car
	carsByID        map[int64]models.Car
	places          []models.Place
	placesByID      map[string]models.Place
	restockOnCancel bool
	logger          *zerolog.Logger
}

func NewCatalogService(st *store.Store, cars []models.Car, places []models.Place, restockOnCancel bool, logger *zerolog.Logger) *CatalogService {
	s := &CatalogService{
		store:           st,
		cars:            append([]models.Car(nil), cars...),
		carsByID:        make(map[int64]models.Car, len(cars)),
		places:          append([]models.Place(nil), places...),
		placesByID:      make(map[string]models.Place, len(places)),
		restockOnCancel: restockOnCancel,
		logger:          logger,
	}
	for _, c := range cars {
		s.carsByID[c.ID] = c
	}
	for _, p := range places {
		s.placesByID[p.ID] = p
	}
	return s
}

func (s *CatalogService) ListCars() []models.Car {
	return append([]models.Car(nil), s.cars...)
}

func (s *CatalogService) GetCar(id int64) (models.Car, error) {
	car, ok := s.carsByID[id]
	if !ok {
		return models.Car{}, fmt.Errorf("%w: %d", domain.ErrCarNotFound, id)
	}
	return car, nil
}

func (s *CatalogService) AvailableQty(carID int64) int {
	var qty int
	s.store.View(func(snap *models.Snapshot) {
		qty = snap.CarQty[models.QtyKey(carID)]
	})
	return qty
}

// DecrementQty takes one unit of the car out of inventory.
func (s *CatalogService) DecrementQty(ctx context.Context, carID int64) error {
	return s.store.Update(ctx, func(snap *models.Snapshot) error {
		return s.takeUnit(snap, carID)
	})
}

// Seed adds a counter for every configured car that has none yet.
// Counts already in the snapshot win over the configured quantity.
func (s *CatalogService) Seed(ctx context.Context) error {
	var missing bool
	s.store.View(func(snap *models.Snapshot) {
		for _, c := range s.cars {
			if _, ok := snap.CarQty[models.QtyKey(c.ID)]; !ok {
				missing = true
				return
			}
		}
	})
	if !missing {
		return nil
	}

	seeded := 0
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		for _, c := range s.cars {
			key := models.QtyKey(c.ID)
			if _, ok := snap.CarQty[key]; !ok {
				snap.CarQty[key] = c.Quantity
				seeded++
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed car quantities: %w", err)
	}
	s.logger.Info().Int("cars", seeded).Msg("seeded car quantities")
	return nil
}

func (s *CatalogService) ListPlaces() []models.Place {
	return append([]models.Place(nil), s.places...)
}

func (s *CatalogService) GetPlace(id string) (models.Place, bool) {
	p, ok := s.placesByID[id]
	return p, ok
}

func (s *CatalogService) takeUnit(snap *models.Snapshot, carID int64) error {
	if _, ok := s.carsByID[carID]; !ok {
		return fmt.Errorf("%w: %d", domain.ErrCarNotFound, carID)
	}
	key := models.QtyKey(carID)
	qty := snap.CarQty[key]
	if qty <= 0 {
		snap.CarQty[key] = 0
		return fmt.Errorf("%w: %s", domain.ErrOutOfInventory, s.carsByID[carID].DisplayName())
	}
	snap.CarQty[key] = qty - 1
	return nil
}

// restock returns a unit when the restock-on-cancel policy is on.
func (s *CatalogService) restock(snap *models.Snapshot, carID int64) {
	if !s.restockOnCancel {
		return
	}
	snap.CarQty[models.QtyKey(carID)]++
}
