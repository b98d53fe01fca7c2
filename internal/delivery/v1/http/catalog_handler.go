package http

import (
	"context"
	"net/http"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
)

type CatalogHandler struct {
	catalogUsecase usecase.CatalogUC
	logger         logger.Logger
	waitTimeout    time.Duration
}

func NewCatalogHandler(catalogUsecase usecase.CatalogUC, logger logger.Logger, waitTimeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalogUsecase: catalogUsecase, logger: logger, waitTimeout: waitTimeout}
}

// listProducts
//
//	@Summary		Выдача товаров
//	@Description	Устанавливает фильтр сессии и возвращает текущий снимок выдачи
//	@Tags			products
//	@Produce		json
//	@Param			X-Session-ID	header		string	false	"Id сессии; создаётся, если не передан"
//	@Param			category		query		string	false	"Категория (all по умолчанию)"
//	@Param			sort			query		string	false	"newest | price_low | price_high | rating"
//	@Param			search			query		string	false	"Поиск по названию и категории"
//	@Success		200				{object}	ProductsResponse
//	@Failure		400				{object}	ErrorResponse
//	@Router			/products [get]
func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter, err := domain.ParseFilter(query.Get("category"), query.Get("sort"))
	if err != nil {
		h.logger.Warnf("%d: %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return
	}

	session, ok := h.session(w, r, true)
	if !ok {
		return
	}

	session.SetFilter(filter)
	h.writeSnapshot(w, r, session, query.Get("search"))
}

// fetchMore
//
//	@Summary		Следующая страница
//	@Tags			products
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Id сессии"
//	@Param			search			query		string	false	"Поиск по названию и категории"
//	@Success		200				{object}	ProductsResponse
//	@Failure		400				{object}	ErrorResponse
//	@Router			/products/more [post]
func (h *CatalogHandler) fetchMore(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, false)
	if !ok {
		return
	}

	session.FetchMore()
	h.writeSnapshot(w, r, session, r.URL.Query().Get("search"))
}

// retry
//
//	@Summary		Повтор последнего запроса
//	@Tags			products
//	@Produce		json
//	@Param			X-Session-ID	header		string	true	"Id сессии"
//	@Success		200				{object}	ProductsResponse
//	@Failure		400				{object}	ErrorResponse
//	@Router			/products/retry [post]
func (h *CatalogHandler) retry(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, false)
	if !ok {
		return
	}

	session.Retry()
	h.writeSnapshot(w, r, session, r.URL.Query().Get("search"))
}

// featured
//
//	@Summary		Featured-блок
//	@Tags			showcase
//	@Produce		json
//	@Success		200	{object}	ShowcaseResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/products/featured [get]
func (h *CatalogHandler) featured(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalogUsecase.Featured(r.Context())
	if err != nil {
		h.logger.Errorf(err, "featured products unavailable")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toShowcaseResponse(res))
}

// hero
//
//	@Summary		Слайды hero-карусели
//	@Tags			showcase
//	@Produce		json
//	@Success		200	{object}	ShowcaseResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/products/hero [get]
func (h *CatalogHandler) hero(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalogUsecase.Hero(r.Context())
	if err != nil {
		h.logger.Errorf(err, "hero slides unavailable")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toShowcaseResponse(res))
}

// categories
//
//	@Summary		Категории каталога
//	@Tags			categories
//	@Produce		json
//	@Success		200	{array}	CategoryResponse
//	@Router			/categories [get]
func (h *CatalogHandler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogUsecase.Categories(r.Context())
	if err != nil {
		h.logger.Errorf(err, "categories unavailable")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCategoryResponses(categories))
}

func (h *CatalogHandler) cacheStats(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, h.catalogUsecase.CacheStats())
}

func (h *CatalogHandler) session(w http.ResponseWriter, r *http.Request, create bool) (usecase.ProductsQuery, bool) {
	id, err := sessionID(w, r, create)
	if err != nil {
		h.logger.Warnf("%d: %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return nil, false
	}

	session, err := h.catalogUsecase.Session(id)
	if err != nil {
		h.logger.Warnf("session %s: %v", id, err)
		WriteError(w, err)
		return nil, false
	}

	return session, true
}

// writeSnapshot ждёт окончания загрузки не дольше waitTimeout. Если не дождались,
// клиент получает снимок с loading=true и может повторить запрос позже.
func (h *CatalogHandler) writeSnapshot(w http.ResponseWriter, r *http.Request, session usecase.ProductsQuery, search string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()

	snap := session.Wait(ctx)
	WriteSuccess(w, http.StatusOK, toProductsResponse(snap, search))
}
