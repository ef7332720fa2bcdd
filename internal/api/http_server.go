package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"carrental/internal/config"
	"carrental/internal/domain"
	"carrental/internal/models"

	"github.com/rs/zerolog"
)

// Bookings is the booking surface the API needs, customer helpers included.
type Bookings interface {
	domain.BookingService
	Collect(ctx context.Context, accountID string, id int64) (models.Booking, error)
	Return(ctx context.Context, accountID string, id int64) (models.Booking, error)
	Cancel(ctx context.Context, accountID string, id int64) (models.Booking, error)
}

type Deps struct {
	Catalog  domain.CatalogService
	Accounts domain.AccountService
	Bookings Bookings
	Admin    domain.AdminService
	// Health reports storage reachability; nil means always healthy.
	Health func(ctx context.Context) error
}

// HTTPServer exposes the customer and admin JSON API.
type HTTPServer struct {
	cfg     config.APIConfig
	deps    Deps
	server  *http.Server
	limiter *rateLimiter
	logger  *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:     cfg,
		deps:    deps,
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealth)

	mux.HandleFunc("GET /api/v1/cars", srv.handleCars)
	mux.HandleFunc("GET /api/v1/cars/{id}/quote", srv.handleQuote)
	mux.HandleFunc("GET /api/v1/places", srv.handlePlaces)

	mux.HandleFunc("POST /api/v1/accounts", srv.handleSignUp)
	mux.HandleFunc("POST /api/v1/session", srv.handleLogin)
	mux.HandleFunc("GET /api/v1/session", srv.handleSession)
	mux.HandleFunc("DELETE /api/v1/session", srv.handleLogout)

	mux.HandleFunc("POST /api/v1/bookings", srv.handleCheckout)
	mux.HandleFunc("GET /api/v1/bookings", srv.handleMyBookings)
	mux.HandleFunc("POST /api/v1/bookings/{id}/collect", srv.customerAction(deps.Bookings.Collect))
	mux.HandleFunc("POST /api/v1/bookings/{id}/return", srv.customerAction(deps.Bookings.Return))
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", srv.customerAction(deps.Bookings.Cancel))

	mux.Handle("GET /api/v1/admin/bookings", srv.adminOnly(srv.handleAdminBookings))
	mux.Handle("GET /api/v1/admin/bookings/export", srv.adminOnly(srv.handleAdminExport))
	mux.Handle("PATCH /api/v1/admin/bookings/{id}", srv.adminOnly(srv.handleAdminUpdate))
	mux.Handle("GET /api/v1/admin/accounts", srv.adminOnly(srv.handleAdminAccounts))

	handler := srv.loggingMiddleware(srv.limiter.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
