package handler

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/tutorhub/internal/auth"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Pinger reports storage health. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Availability *service.AvailabilityService
	Bookings     *service.BookingService
	Users        *service.UserService
	StudyGroups  *service.StudyGroupService
}

type Handler struct {
	availability *service.AvailabilityService
	bookings     *service.BookingService
	users        *service.UserService
	groups       *service.StudyGroupService
	pinger       Pinger
	validate     *Validator
	logger       *zap.Logger
}

func New(svc Services, pinger Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		availability: svc.Availability,
		bookings:     svc.Bookings,
		users:        svc.Users,
		groups:       svc.StudyGroups,
		pinger:       pinger,
		validate:     NewValidator(),
		logger:       logger,
	}
}

// Router builds the full HTTP surface, traced with otelhttp.
func (h *Handler) Router(verifier *auth.Verifier) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Observe(h.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(verifier))

		r.Route("/tutors/availability", func(r chi.Router) {
			r.Post("/", h.CreateAvailability)
			r.Get("/", h.ListAvailability)
			r.Patch("/{id}", h.UpdateAvailability)
			r.Delete("/{id}", h.DeleteAvailability)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.CreateBooking)
			r.Get("/tutor", h.ListTutorBookings)
			r.Get("/student", h.ListStudentBookings)
			r.Patch("/{id}", h.UpdateBooking)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", h.GetMe)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Patch("/{id}/password", h.ChangePassword)
		})

		r.Route("/studyGroups", func(r chi.Router) {
			r.Post("/", h.CreateStudyGroup)
			r.Get("/", h.ListStudyGroups)
			r.Get("/{id}", h.GetStudyGroup)
			r.Patch("/{id}", h.UpdateStudyGroup)
			r.Delete("/{id}", h.DeleteStudyGroup)
		})
	})

	return otelhttp.NewHandler(r, "tutorhub-api")
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
