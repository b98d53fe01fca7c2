package http

import (
	"net/http"
	"time"

	_ "github.com/DRSN-tech/storefront-catalog/docs" // Регистрация swagger-спецификации
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(catalogUC usecase.CatalogUC, waitTimeout time.Duration) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Recoverer)
	r.router.Use(accessLog(r.logger))

	r.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		catalogHandler := NewCatalogHandler(catalogUC, r.logger, waitTimeout)
		registerCatalogRoutes(v1, catalogHandler)
	})
}

func registerCatalogRoutes(router chi.Router, h *CatalogHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.listProducts)
		pr.Post("/more", h.fetchMore)
		pr.Post("/retry", h.retry)
		pr.Get("/featured", h.featured)
		pr.Get("/hero", h.hero)
	})
	router.Get("/categories", h.categories)
	router.Get("/cache/stats", h.cacheStats)
}
