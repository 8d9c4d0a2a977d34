// Package api is the JSON HTTP surface of BlindList. Every route that takes a
// capability token carries it in the path; the token is the only credential.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/BlindList/internal/metrics"
	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/service"
)

//go:generate mockgen -source=server.go -destination=mocks/service_mock.go -package=mocks Service

// Service is the business layer the HTTP handlers drive.
type Service interface {
	CreateList(ctx context.Context, name string) (*models.CapabilityPair, error)
	GetCreatorView(ctx context.Context, creatorToken string) (*models.CreatorView, error)
	GetBuyerView(ctx context.Context, buyerToken string) (*models.BuyerView, error)
	AddItem(ctx context.Context, creatorToken string, fields models.ItemFields) (*models.CreatorItem, error)
	EditItem(ctx context.Context, creatorToken, itemID string, fields models.ItemFields) (*models.CreatorItem, error)
	DeleteItem(ctx context.Context, creatorToken, itemID string) error
	TogglePurchased(ctx context.Context, buyerToken, itemID string) (*models.PurchaseState, error)
	BindEmail(ctx context.Context, creatorToken, email string) (*service.BindResult, error)
	RequestRecovery(ctx context.Context, email string) error
	RedeemRecovery(ctx context.Context, token string) ([]models.RecoveredList, error)
}

// Config holds HTTP-level settings.
type Config struct {
	// AllowedOrigin is sent back in CORS responses; normally the frontend URL.
	AllowedOrigin  string
	RequestTimeout time.Duration
}

// Server provides the HTTP API.
type Server struct {
	svc      Service
	cfg      Config
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	router   chi.Router
}

// NewServer creates a Server, registers all routes, and returns it. gatherer
// backs /metrics; nil means the default registry.
func NewServer(svc Service, cfg Config, logger *logrus.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		svc:      svc,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		gatherer: gatherer,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/api/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/lists", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		r.Use(s.observe)
		r.Use(tagClient)

		r.Post("/", s.handleCreateList)

		r.Get("/creator/{token}", s.handleCreatorView)
		r.Post("/creator/{token}/items", s.handleAddItem)
		r.Patch("/creator/{token}/items/{itemID}", s.handleEditItem)
		r.Delete("/creator/{token}/items/{itemID}", s.handleDeleteItem)

		r.Get("/buyer/{token}", s.handleBuyerView)
		r.Post("/buyer/{token}/items/{itemID}/toggle-purchased", s.handleTogglePurchased)

		r.Post("/{token}/associate-email", s.handleBindEmail)

		r.Post("/lookup", s.handleRequestRecovery)
		r.Get("/verify-email/{token}", s.handleRedeemRecovery)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
