package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/shopspring/decimal"
)

var errBackend = errors.New("backend unavailable")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeKV — хранилище в памяти; err, если задан, возвращается из всех методов.
type fakeKV struct {
	mu    sync.Mutex
	items map[string]string
	err   error
	sets  int
}

func newFakeKV() *fakeKV {
	return &fakeKV{items: make(map[string]string)}
}

func (f *fakeKV) GetItem(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.items[key]
	return v, ok, nil
}

func (f *fakeKV) SetItem(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sets++
	f.items[key] = value
	return nil
}

func (f *fakeKV) RemoveItem(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, k := range keys {
		delete(f.items, k)
	}
	return nil
}

func (f *fakeKV) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[key]
	return ok
}

type fetchCall struct {
	filter domain.FilterState
	offset int
	limit  int
}

// fakeFetcher отдаёт страницы из fetchFn и считает вызовы.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   []fetchCall
	count   atomic.Int64
	fetchFn func(ctx context.Context, filter domain.FilterState, offset, limit int) (*Page, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, filter domain.FilterState, offset, limit int) (*Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{filter: filter, offset: offset, limit: limit})
	f.mu.Unlock()
	f.count.Add(1)
	return f.fetchFn(ctx, filter, offset, limit)
}

func (f *fakeFetcher) callsSnapshot() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

// pagedFetcher отдаёт total товаров страницами, id вида "<prefix>-<n>".
func pagedFetcher(prefix string, total int) *fakeFetcher {
	return &fakeFetcher{
		fetchFn: func(_ context.Context, _ domain.FilterState, offset, limit int) (*Page, error) {
			return makePage(prefix, offset, limit, total), nil
		},
	}
}

func makePage(prefix string, offset, limit, total int) *Page {
	end := min(offset+limit, total)
	products := make([]domain.Product, 0, max(end-offset, 0))
	for i := offset; i < end; i++ {
		products = append(products, testProduct(fmt.Sprintf("%s-%d", prefix, i)))
	}
	return &Page{
		Products:     products,
		Offset:       offset,
		NextOffset:   offset + len(products),
		PossiblyMore: len(products) == limit,
	}
}

func testProduct(id string) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.NewFromInt(100),
		Category: "phones",
		Images:   []string{"https://cdn.example/" + id + ".jpg"},
		Rating:   domain.DefaultRating,
		InStock:  true,
	}
}

func productIDs(products []domain.Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

type fakeCatalogRepo struct {
	mu      sync.Mutex
	queries []CatalogQuery
	queryFn func(q *CatalogQuery) ([]ProductRow, error)
}

func (f *fakeCatalogRepo) QueryProducts(_ context.Context, q *CatalogQuery) ([]ProductRow, error) {
	f.mu.Lock()
	f.queries = append(f.queries, *q)
	f.mu.Unlock()
	return f.queryFn(q)
}

type fakeImages struct {
	mu       sync.Mutex
	resolved map[string]string
	calls    int
	uploads  []UploadImagesReq
}

func (f *fakeImages) ResolveImages(_ context.Context, refs []string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make(map[string]string)
	for _, r := range refs {
		if u, ok := f.resolved[r]; ok {
			out[r] = u
		}
	}
	return out
}

func (f *fakeImages) UploadImages(_ context.Context, req *UploadImagesReq) (*UploadImagesRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, *req)
	keys := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		keys = append(keys, "products/"+req.ProductID+"/"+img.Name)
	}
	return NewUploadImagesRes(keys), nil
}

type fakeCategoryRepo struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
	calls  int
}

func (f *fakeCategoryRepo) CountVisible(context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]int64, len(f.counts))
	for k, v := range f.counts {
		out[k] = v
	}
	return out, nil
}
