package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/api/handler"
	apimw "github.com/ppnshub/notification-hub/internal/api/middleware"
	"github.com/ppnshub/notification-hub/internal/repository"
	"github.com/ppnshub/notification-hub/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	boxes *service.BoxRegistry,
	delivery *service.DeliveryCoordinator,
	callbacks *service.CallbackValidator,
	notifications repository.NotificationStore,
	reg prometheus.Gatherer,
	defaultPageSize int,
	allowedUserAgents []string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))
	r.Use(apimw.AllowedUserAgents(allowedUserAgents))

	validate := validator.New()

	// --- handler instances ---
	bh := handler.NewBoxHandler(boxes, validate, logger)
	ch := handler.NewCallbackHandler(callbacks, validate, logger)
	nh := handler.NewNotificationHandler(delivery, notifications, validate, defaultPageSize, logger)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Put("/box", bh.CreateOrRetrieve)
	r.Get("/box", bh.GetByNameAndClient)
	r.Get("/box/{boxId}", bh.Get)
	r.Put("/box/{boxId}/callback", ch.Update)
	r.Post("/box/{boxId}/notifications", nh.Publish)
	r.Get("/box/{boxId}/notifications", nh.List)
	r.Put("/box/{boxId}/notifications/acknowledge", nh.Acknowledge)

	r.Get("/client/{clientId}/boxes", bh.ListByClient)

	return r
}
