package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"medeasy/pos/internal/pos"
)

// Config holds the HTTP layer settings.
type Config struct {
	Secret      string
	TokenTTL    time.Duration
	CORSOrigins []string
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	svc     *pos.Service
	tenants TenantStore
	log     *zap.Logger
	cfg     Config
}

// New constructs a Handler.
func New(svc *pos.Service, tenants TenantStore, log *zap.Logger, cfg Config) *Handler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &Handler{svc: svc, tenants: tenants, log: log, cfg: cfg}
}

// Router wires up the HTTP API. Every route is served both at the root and
// under /api. Credentialed CORS is only offered to explicitly listed origins.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(h.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !slices.Contains(h.cfg.CORSOrigins, "*"),
	}))

	r.Group(h.routes)
	r.Route("/api", h.routes)
	return r
}

func (h *Handler) routes(r chi.Router) {
	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/medicine", func(r chi.Router) {
			r.Post("/add", h.addMedicine)
			r.Get("/all", h.listMedicines)
			r.Put("/update/{id}", h.updateMedicine)
			r.Delete("/delete/{id}", h.deleteMedicine)
			r.Post("/import", h.importMedicines)
			r.Get("/low-stock-list", h.lowStock)
			r.Get("/expiring-soon-list", h.expiringSoon)
		})

		pr.Route("/demand", func(r chi.Router) {
			r.Post("/add", h.addDemand)
			r.Get("/all", h.listDemands)
			r.Delete("/delete/{id}", h.deleteDemand)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Post("/add", h.addSale)
			r.Post("/checkout", h.checkout)
			r.Get("/history", h.salesHistory)
			r.Get("/invoice/{invoiceId}", h.invoice)
			r.Post("/return", h.processReturn)
			r.Get("/chart", h.salesChart)
		})

		pr.Get("/dashboard/stats", h.stats)
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
