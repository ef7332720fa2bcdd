package api

import (
	"carrental/internal/domain"
	"carrental/internal/models"
)

type accountView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	LoginMs *int64 `json:"loginMs,omitempty"`
}

func newAccountView(a models.Account) accountView {
	return accountView{ID: a.ID, Name: a.Name, Email: a.Email, LoginMs: a.LoginMs}
}

type carView struct {
	models.Car
	Available int `json:"available"`
}

type placeView struct {
	models.Place
	DirectionsURL string `json:"directionsUrl"`
}

func newPlaceView(p models.Place) placeView {
	return placeView{Place: p, DirectionsURL: p.DirectionsURL()}
}

type directionsView struct {
	Label string `json:"label"`
	Place string `json:"place"`
	URL   string `json:"url"`
}

type bookingView struct {
	models.Booking
	CarName           string          `json:"carName"`
	StatusLabel       string          `json:"statusLabel"`
	StatusDescription string          `json:"statusDescription"`
	DisplayedTotal    float64         `json:"displayedTotal"`
	RefundAmount      *float64        `json:"refundAmount,omitempty"`
	Directions        *directionsView `json:"directions,omitempty"`
}

// newBookingView adds what the booking history shows next to the raw record:
// the amount due, the refund for a cancelled booking, and a directions link
// while the customer still has to pick up or bring back the car.
func newBookingView(b models.Booking, catalog domain.CatalogService) bookingView {
	v := bookingView{
		Booking:           b,
		StatusLabel:       b.Status.Label(),
		StatusDescription: b.Status.Description(),
		DisplayedTotal:    b.DisplayedTotal(),
	}
	if car, err := catalog.GetCar(b.CarID); err == nil {
		v.CarName = car.DisplayName()
	}
	if b.Status == models.StatusCancelled {
		refund := b.RefundAmount()
		v.RefundAmount = &refund
	}
	if b.PlaceID != nil && b.Status.Active() {
		if place, ok := catalog.GetPlace(*b.PlaceID); ok {
			label := "Pickup at"
			if b.Status == models.StatusCollected {
				label = "Return to"
			}
			v.Directions = &directionsView{Label: label, Place: place.Name, URL: place.DirectionsURL()}
		}
	}
	return v
}
