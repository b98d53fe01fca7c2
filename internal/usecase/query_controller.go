package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
)

// Status — состояние контроллера выдачи.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusLoadingInitial Status = "loading_initial"
	StatusReady          Status = "ready"
	StatusLoadingMore    Status = "loading_more"
	StatusError          Status = "error"
)

// Snapshot — то, что получает слой представления.
type Snapshot struct {
	Filter   domain.FilterState
	Status   Status
	Products []domain.Product
	Loading  bool
	HasMore  bool
	Stale    bool   // показаны устаревшие данные из кэша
	Error    string // пусто, если ошибки нет
}

type ControllerOpts struct {
	PageSize       int
	SoftTimeout    time.Duration // после него показываются устаревшие данные из кэша
	RequestTimeout time.Duration // после него запрос отменяется
}

type requestKind uint8

const (
	requestInitial requestKind = iota
	requestMore
)

type request struct {
	id     uint64
	gen    uint64
	ctx    context.Context
	kind   requestKind
	filter domain.FilterState
	offset int
}

type fetchResult struct {
	page *Page
	err  error
}

// QueryController ведёт выдачу одной сессии: фильтр, пагинацию, предзагрузку
// следующей страницы. Ответы, пришедшие для устаревшего поколения фильтра или
// не для последнего запроса, отбрасываются.
type QueryController struct {
	fetcher Fetcher
	cache   *CacheStore
	logger  logger.Logger
	opts    ControllerOpts

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	generation uint64
	genCtx     context.Context
	genCancel  context.CancelFunc
	requestID  uint64
	last       *request // последний foreground-запрос, для Retry
	inFlight   bool

	filter    domain.FilterState
	hasFilter bool
	status    Status
	products  []domain.Product
	ids       map[string]struct{}
	cursor    int
	hasMore   bool
	stale     bool
	errMsg    string
	ahead     *Page
	// prefetchAt — смещение, для которого уже идёт предзагрузка; -1 — нет
	prefetchAt int
	changed    chan struct{}
}

func NewQueryController(fetcher Fetcher, cache *CacheStore, logger logger.Logger, opts ControllerOpts) *QueryController {
	const (
		defaultPageSize       = 24
		defaultSoftTimeout    = 3 * time.Second
		defaultRequestTimeout = 10 * time.Second
	)

	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.SoftTimeout <= 0 {
		opts.SoftTimeout = defaultSoftTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	genCtx, genCancel := context.WithCancel(rootCtx)

	return &QueryController{
		fetcher:    fetcher,
		cache:      cache,
		logger:     logger,
		opts:       opts,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		genCtx:     genCtx,
		genCancel:  genCancel,
		status:     StatusIdle,
		ids:        make(map[string]struct{}),
		prefetchAt: -1,
		changed:    make(chan struct{}),
	}
}

// SetFilter переключает фильтр: отменяет всё, что шло для прежнего поколения,
// сбрасывает курсор и читает кэш. Промах запускает загрузку первой страницы.
// Тот же фильтр в не-idle состоянии ничего не меняет.
func (c *QueryController) SetFilter(filter domain.FilterState) {
	c.mu.Lock()
	if c.closed || (c.hasFilter && c.filter == filter && c.status != StatusIdle) {
		c.mu.Unlock()
		return
	}

	c.genCancel()
	c.generation++
	c.genCtx, c.genCancel = context.WithCancel(c.rootCtx)
	gen, ctx := c.generation, c.genCtx

	c.filter = filter
	c.hasFilter = true
	c.resetLocked()
	c.status = StatusLoadingInitial
	c.notifyLocked()
	c.mu.Unlock()

	entry, hit := c.cache.Get(ctx, filter)

	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		return
	}

	// Попадание в кэш не ходит в бэкенд: если предзагрузки нет, страницу догрузит FetchMore
	if hit {
		c.applyPageLocked(entry.Products, entry.Cursor, entry.HasMore)
		c.ahead = entry.Ahead
		c.status = StatusReady
		c.notifyLocked()
		c.mu.Unlock()

		c.logger.Debugf("catalog cache hit: %s", filter.Key())
		return
	}

	req := c.newRequestLocked(requestInitial, filter, 0)
	c.mu.Unlock()

	c.start(req)
}

// FetchMore догружает следующую страницу. Работает только в Ready при HasMore.
// Если следующая страница уже предзагружена, применяется сразу.
func (c *QueryController) FetchMore() {
	c.mu.Lock()
	if c.closed || c.status != StatusReady || !c.hasMore || c.inFlight {
		c.mu.Unlock()
		return
	}

	if c.ahead != nil && c.ahead.Offset == c.cursor {
		page := c.ahead
		c.ahead = nil
		added := c.appendPageLocked(page)
		gen, ctx, filter := c.generation, c.genCtx, c.filter
		cursor, hasMore := c.cursor, c.hasMore
		c.notifyLocked()
		c.mu.Unlock()

		c.cache.Merge(ctx, filter, added, cursor, hasMore)
		if hasMore {
			c.prefetch(ctx, gen, filter, cursor)
		}
		return
	}

	req := c.newRequestLocked(requestMore, c.filter, c.cursor)
	c.mu.Unlock()

	c.start(req)
}

// Retry повторяет последний запрос (тот же вид, фильтр и смещение) после ошибки.
func (c *QueryController) Retry() {
	c.mu.Lock()
	if c.closed || c.status != StatusError || c.last == nil || c.last.gen != c.generation {
		c.mu.Unlock()
		return
	}

	last := c.last
	req := c.newRequestLocked(last.kind, last.filter, last.offset)
	c.mu.Unlock()

	c.start(req)
}

// Close отменяет все запросы и дожидается фоновых горутин.
func (c *QueryController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.inFlight = false
	if c.status == StatusLoadingInitial || c.status == StatusLoadingMore {
		c.status = StatusIdle
	}
	c.notifyLocked()
	c.mu.Unlock()

	c.rootCancel()
	c.wg.Wait()
}

func (c *QueryController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait ждёт, пока контроллер не перестанет загружать, или окончания ctx,
// и возвращает текущий снимок.
func (c *QueryController) Wait(ctx context.Context) Snapshot {
	for {
		c.mu.Lock()
		snap := c.snapshotLocked()
		changed := c.changed
		c.mu.Unlock()

		if !snap.Loading {
			return snap
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return snap
		}
	}
}

// FilterBySearch оставляет товары, у которых название или категория содержат
// строку поиска (без учёта регистра). Поиск не влияет на ключ кэша и запрос к БД.
func FilterBySearch(products []domain.Product, query string) []domain.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return products
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), query) || strings.Contains(strings.ToLower(p.Category), query) {
			out = append(out, p)
		}
	}
	return out
}

func (c *QueryController) snapshotLocked() Snapshot {
	return Snapshot{
		Filter:   c.filter,
		Status:   c.status,
		Products: append([]domain.Product(nil), c.products...),
		Loading:  c.status == StatusLoadingInitial || c.status == StatusLoadingMore,
		HasMore:  c.hasMore,
		Stale:    c.stale,
		Error:    c.errMsg,
	}
}

func (c *QueryController) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *QueryController) resetLocked() {
	c.products = nil
	c.ids = make(map[string]struct{})
	c.cursor = 0
	c.hasMore = false
	c.stale = false
	c.errMsg = ""
	c.ahead = nil
	c.inFlight = false
	c.prefetchAt = -1
	c.last = nil
}

func (c *QueryController) newRequestLocked(kind requestKind, filter domain.FilterState, offset int) *request {
	c.requestID++
	req := &request{
		id:     c.requestID,
		gen:    c.generation,
		ctx:    c.genCtx,
		kind:   kind,
		filter: filter,
		offset: offset,
	}
	c.last = req
	c.inFlight = true
	c.wg.Add(1) // парный Done в start
	c.errMsg = ""
	if kind == requestInitial {
		c.status = StatusLoadingInitial
	} else {
		c.status = StatusLoadingMore
	}
	c.notifyLocked()
	return req
}

// currentLocked — ответ на req ещё актуален.
func (c *QueryController) currentLocked(req *request) bool {
	return !c.closed && req.gen == c.generation && req.id == c.requestID
}

func (c *QueryController) start(req *request) {
	go func() {
		defer c.wg.Done()
		c.run(req)
	}()
}

func (c *QueryController) run(req *request) {
	ctx, cancel := context.WithTimeout(req.ctx, c.opts.RequestTimeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		page, err := c.fetcher.Fetch(ctx, req.filter, req.offset, c.opts.PageSize)
		done <- fetchResult{page: page, err: err}
	}()

	var soft <-chan time.Time
	if req.kind == requestInitial {
		t := time.NewTimer(c.opts.SoftTimeout)
		defer t.Stop()
		soft = t.C
	}

	for {
		select {
		case res := <-done:
			c.complete(req, res)
			return
		case <-soft:
			soft = nil
			c.softTimeout(req)
		}
	}
}

// softTimeout показывает устаревшие данные, пока первая страница ещё грузится.
func (c *QueryController) softTimeout(req *request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(req) || c.status != StatusLoadingInitial {
		return
	}

	entry, ok := c.cache.Peek(req.filter)
	if !ok || len(entry.Products) == 0 {
		return
	}

	c.applyPageLocked(entry.Products, entry.Cursor, entry.HasMore)
	c.stale = true
	c.status = StatusReady
	c.notifyLocked()
	c.logger.Debugf("catalog soft timeout, serving stale %s", req.filter.Key())
}

func (c *QueryController) complete(req *request, res fetchResult) {
	c.mu.Lock()
	if !c.currentLocked(req) {
		c.mu.Unlock()
		c.logger.Debugf("catalog response discarded: request %d generation %d", req.id, req.gen)
		return
	}
	c.inFlight = false

	if res.err != nil {
		c.failLocked(req, res.err)
		c.mu.Unlock()
		return
	}

	var (
		gen    = req.gen
		ctx    = req.ctx
		filter = req.filter
	)

	switch req.kind {
	case requestInitial:
		c.applyPageLocked(res.page.Products, res.page.NextOffset, res.page.PossiblyMore)
		c.stale = false
		c.ahead = nil
		c.status = StatusReady
		entry := CacheEntry{Filter: filter, Products: c.products, Cursor: c.cursor, HasMore: c.hasMore}
		cursor, hasMore := c.cursor, c.hasMore
		c.notifyLocked()
		c.mu.Unlock()

		c.cache.Put(ctx, filter, entry)
		if hasMore {
			c.prefetch(ctx, gen, filter, cursor)
		}

	case requestMore:
		added := c.appendPageLocked(res.page)
		cursor, hasMore := c.cursor, c.hasMore
		c.notifyLocked()
		c.mu.Unlock()

		c.cache.Merge(ctx, filter, added, cursor, hasMore)
		if hasMore {
			c.prefetch(ctx, gen, filter, cursor)
		}
	}
}

// failLocked: первая страница без кэша — Error с пустым списком; при наличии
// кэша — устаревшие данные без ошибки; ошибка догрузки — Error, список сохраняется.
func (c *QueryController) failLocked(req *request, err error) {
	if errors.Is(err, context.Canceled) && c.rootCtx.Err() != nil {
		return
	}

	if req.kind == requestInitial {
		if !c.stale {
			if entry, ok := c.cache.Peek(req.filter); ok && len(entry.Products) > 0 {
				c.applyPageLocked(entry.Products, entry.Cursor, entry.HasMore)
				c.stale = true
			}
		}
		if c.stale {
			c.status = StatusReady
			c.notifyLocked()
			c.logger.Warnf("catalog fetch failed, serving stale %s: %v", req.filter.Key(), err)
			return
		}

		c.products = nil
		c.ids = make(map[string]struct{})
		c.hasMore = false
	}

	c.status = StatusError
	c.errMsg = "failed to load products"
	c.notifyLocked()
	c.logger.Errorf(err, "catalog fetch failed: %s offset=%d", req.filter.Key(), req.offset)
}

// applyPageLocked заменяет выдачу целиком.
func (c *QueryController) applyPageLocked(products []domain.Product, cursor int, hasMore bool) {
	c.products = make([]domain.Product, 0, len(products))
	c.ids = make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, ok := c.ids[p.ID]; ok {
			continue
		}
		c.ids[p.ID] = struct{}{}
		c.products = append(c.products, p)
	}
	c.cursor = cursor
	c.hasMore = hasMore
}

// appendPageLocked дописывает страницу после уже показанных товаров, пропуская
// повторы, и возвращает реально добавленные.
func (c *QueryController) appendPageLocked(page *Page) []domain.Product {
	added := make([]domain.Product, 0, len(page.Products))
	for _, p := range page.Products {
		if _, ok := c.ids[p.ID]; ok {
			continue
		}
		c.ids[p.ID] = struct{}{}
		c.products = append(c.products, p)
		added = append(added, p)
	}
	c.cursor = page.NextOffset
	c.hasMore = page.PossiblyMore
	c.status = StatusReady
	return added
}

// prefetch в фоне загружает страницу по смещению offset. Ошибки проглатываются;
// результат сохраняется, только если поколение и курсор не изменились.
func (c *QueryController) prefetch(genCtx context.Context, gen uint64, filter domain.FilterState, offset int) {
	c.mu.Lock()
	if c.closed || gen != c.generation || c.prefetchAt == offset {
		c.mu.Unlock()
		return
	}
	c.prefetchAt = offset
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(genCtx, c.opts.RequestTimeout)
		defer cancel()

		page, err := c.fetcher.Fetch(ctx, filter, offset, c.opts.PageSize)

		c.mu.Lock()
		if c.prefetchAt == offset && gen == c.generation {
			c.prefetchAt = -1
		}
		if err != nil {
			c.mu.Unlock()
			c.logger.Debugf("catalog prefetch %s offset=%d failed: %v", filter.Key(), offset, err)
			return
		}
		if c.closed || gen != c.generation || offset != c.cursor {
			c.mu.Unlock()
			c.logger.Debugf("catalog prefetch %s offset=%d discarded", filter.Key(), offset)
			return
		}
		c.ahead = page
		c.mu.Unlock()

		c.cache.StashAhead(genCtx, filter, page)
	}()
}
