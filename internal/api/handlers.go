package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"carrental/internal/domain"
	"carrental/internal/models"
	"carrental/internal/report"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleCars(w http.ResponseWriter, _ *http.Request) {
	cars := s.deps.Catalog.ListCars()
	out := make([]carView, 0, len(cars))
	for _, c := range cars {
		out = append(out, carView{Car: c, Available: s.deps.Catalog.AvailableQty(c.ID)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"cars": out})
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	q := r.URL.Query()
	quote, err := s.deps.Bookings.Quote(id, q.Get("from"), q.Get("to"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handlePlaces(w http.ResponseWriter, _ *http.Request) {
	places := s.deps.Catalog.ListPlaces()
	out := make([]placeView, 0, len(places))
	for _, p := range places {
		out = append(out, newPlaceView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": out})
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	acc, err := s.deps.Accounts.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAccountView(acc))
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	acc, err := s.deps.Accounts.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(acc))
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.deps.Accounts.CurrentAccount()
	if !ok {
		writeDomainError(w, r, domain.ErrSessionRequired)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(acc))
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Accounts.Logout(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	var account *models.Account
	if acc, ok := s.deps.Accounts.CurrentAccount(); ok {
		account = &acc
	}

	b, err := s.deps.Bookings.Checkout(r.Context(), models.CheckoutRequest{
		CarID:      *req.CarID,
		Account:    account,
		RentFrom:   req.From,
		RentTo:     req.To,
		CardNumber: req.CardNumber,
		PlaceID:    req.PlaceID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBookingView(b, s.deps.Catalog))
}

func (s *HTTPServer) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.deps.Accounts.CurrentAccount()
	if !ok {
		writeDomainError(w, r, domain.ErrSessionRequired)
		return
	}
	out := []bookingView{}
	for b := range s.deps.Bookings.ListForAccount(acc.ID) {
		out = append(out, newBookingView(b, s.deps.Catalog))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

type bookingAction func(ctx context.Context, accountID string, id int64) (models.Booking, error)

// customerAction runs a lifecycle action on one of the current account's bookings.
func (s *HTTPServer) customerAction(action bookingAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		acc, ok := s.deps.Accounts.CurrentAccount()
		if !ok {
			writeDomainError(w, r, domain.ErrSessionRequired)
			return
		}
		b, err := action(r.Context(), acc.ID, id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newBookingView(b, s.deps.Catalog))
	}
}

func (s *HTTPServer) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := bookingFilter(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	bookings := s.deps.Bookings.ListFiltered(filter)
	out := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, newBookingView(b, s.deps.Catalog))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

func (s *HTTPServer) handleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req adminUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	b, err := s.deps.Bookings.AdminUpdate(r.Context(), id, req.toUpdate())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingView(b, s.deps.Catalog))
}

func (s *HTTPServer) handleAdminAccounts(w http.ResponseWriter, _ *http.Request) {
	accounts := s.deps.Accounts.Accounts()
	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountView(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	filter, err := bookingFilter(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	lookup := report.Lookup{
		Cars:     s.deps.Catalog.ListCars(),
		Accounts: s.deps.Accounts.Accounts(),
		Places:   s.deps.Catalog.ListPlaces(),
	}
	var buf bytes.Buffer
	if err := report.WriteBookings(&buf, s.deps.Bookings.ListFiltered(filter), lookup); err != nil {
		writeDomainError(w, r, err)
		return
	}

	name := fmt.Sprintf("bookings_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
