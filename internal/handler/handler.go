package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blueharbor/divebook/internal/config"
	"github.com/blueharbor/divebook/internal/middleware"
	"github.com/blueharbor/divebook/internal/service"
)

// Handler holds all dependencies needed by the HTTP handlers.
type Handler struct {
	cfg            *config.Config
	authService    *service.AuthService
	storeService   *service.StoreService
	bookingService *service.BookingService
	couponService  *service.CouponService
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg            *config.Config
	AuthService    *service.AuthService
	StoreService   *service.StoreService
	BookingService *service.BookingService
	CouponService  *service.CouponService
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:            deps.Cfg,
		authService:    deps.AuthService,
		storeService:   deps.StoreService,
		bookingService: deps.BookingService,
		couponService:  deps.CouponService,
	}
}

// Routes builds the full API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover)
	r.Use(middleware.Logging)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(h.cfg.AuthRatePerMinute))
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
			r.With(middleware.Auth(h.authService)).Get("/me", h.Me)
		})

		// Public catalog
		r.Get("/stores", h.ListStores)
		r.Get("/stores/{id}", h.GetStore)
		r.Get("/schedules/{id}", h.GetSchedule)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.authService))

			r.Post("/stores", h.CreateStore)
			r.Post("/stores/{id}/schedules", h.CreateSchedule)

			r.Get("/bookings", h.ListBookings)
			r.Get("/bookings/my", h.MyBookings)
			r.Get("/bookings/{id}", h.GetBooking)
			r.Post("/bookings", h.CreateBooking)
			r.Delete("/bookings/{id}", h.CancelBooking)

			r.Post("/coupons/validate", h.ValidateCoupon)
		})

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(h.authService))
			r.Use(middleware.RequireAdmin)

			r.Post("/coupons", h.CreateCoupon)
			r.Get("/coupons", h.ListCoupons)
			r.Post("/coupons/generate", h.GenerateCoupons)
			r.Get("/coupons/{id}", h.GetCoupon)
			r.Put("/coupons/{id}", h.UpdateCoupon)
			r.Delete("/coupons/{id}", h.DeactivateCoupon)
		})
	})

	return r
}
