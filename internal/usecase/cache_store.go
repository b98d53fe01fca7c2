package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
)

// Clock возвращает текущее время. В тестах подменяется.
type Clock func() time.Time

const DefaultCacheKeyPrefix = "catalog:v1:"

// CacheEntry — закэшированная выдача по одному ключу фильтра.
type CacheEntry struct {
	Filter     domain.FilterState
	Products   []domain.Product
	Cursor     int   // смещение в коллекции после загруженных строк
	HasMore    bool
	Ahead      *Page // предзагруженная следующая страница, в Products не входит
	FetchedAt  time.Time
	UsageCount int
}

func (c *CacheEntry) clone() CacheEntry {
	out := *c
	out.Products = append([]domain.Product(nil), c.Products...)
	out.Ahead = c.Ahead.clone()
	return out
}

// CacheStats — счётчики кэша.
type CacheStats struct {
	Entries         int    `json:"entries"`
	Hits            uint64 `json:"hits"`
	Misses          uint64 `json:"misses"`
	PersistedHits   uint64 `json:"persisted_hits"`
	Evictions       uint64 `json:"evictions"`
	StorageFailures uint64 `json:"storage_failures"`
}

type CacheStoreOpts struct {
	TTL            time.Duration
	MaxEntries     int
	StorageTimeout time.Duration
	KeyPrefix      string
	Clock          Clock
}

// CacheStore — двухуровневый кэш выдачи: память процесса и персистентное хранилище.
// Ошибки хранилища никогда не доходят до вызывающего: чтение превращается в промах,
// запись пропускается.
type CacheStore struct {
	persister      KeyValueStore
	logger         logger.Logger
	ttl            time.Duration
	maxEntries     int
	storageTimeout time.Duration
	prefix         string
	now            Clock

	// writeMu упорядочивает записи в хранилище в порядке изменений в памяти
	writeMu sync.Mutex
	mu      sync.Mutex
	entries map[string]*CacheEntry
	stats   CacheStats
}

// NewCacheStore создаёт кэш. persister может быть nil — тогда работает только память.
func NewCacheStore(persister KeyValueStore, logger logger.Logger, opts CacheStoreOpts) *CacheStore {
	const (
		defaultTTL            = 5 * time.Minute
		defaultMaxEntries     = 10
		defaultStorageTimeout = 250 * time.Millisecond
	)

	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaultMaxEntries
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = defaultStorageTimeout
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultCacheKeyPrefix
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &CacheStore{
		persister:      persister,
		logger:         logger,
		ttl:            opts.TTL,
		maxEntries:     opts.MaxEntries,
		storageTimeout: opts.StorageTimeout,
		prefix:         opts.KeyPrefix,
		now:            opts.Clock,
		entries:        make(map[string]*CacheEntry),
	}
}

func (s *CacheStore) TTL() time.Duration {
	return s.ttl
}

func (s *CacheStore) persistedKey(f domain.FilterState) string {
	return s.prefix + f.Key()
}

func (s *CacheStore) fresh(entry *CacheEntry, now time.Time) bool {
	return now.Sub(entry.FetchedAt) < s.ttl
}

// Get возвращает свежую запись. Сначала память, затем хранилище; свежая запись
// из хранилища поднимается в память.
func (s *CacheStore) Get(ctx context.Context, f domain.FilterState) (CacheEntry, bool) {
	key := f.Key()
	now := s.now()

	s.mu.Lock()
	prevUsage := 0
	if entry, ok := s.entries[key]; ok {
		entry.UsageCount++
		prevUsage = entry.UsageCount
		if s.fresh(entry, now) {
			s.stats.Hits++
			out := entry.clone()
			s.mu.Unlock()
			return out, true
		}
	}
	s.mu.Unlock()

	loaded, ok := s.load(ctx, f)
	if !ok || !s.fresh(loaded, now) {
		s.mu.Lock()
		s.stats.Misses++
		s.mu.Unlock()
		return CacheEntry{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// пока читали хранилище, в память могли положить запись новее
	if cur, ok := s.entries[key]; ok && !cur.FetchedAt.Before(loaded.FetchedAt) {
		s.stats.Hits++
		return cur.clone(), true
	}

	loaded.Filter = f
	loaded.UsageCount = max(prevUsage, 1)
	s.entries[key] = loaded
	s.stats.Hits++
	s.stats.PersistedHits++
	s.pruneLocked(key)

	return loaded.clone(), true
}

// Peek возвращает запись из памяти независимо от возраста. Используется как
// источник устаревших данных при таймауте или ошибке загрузки.
func (s *CacheStore) Peek(f domain.FilterState) (CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[f.Key()]
	if !ok {
		return CacheEntry{}, false
	}
	return entry.clone(), true
}

// Put записывает выдачу в оба уровня и обрезает память.
func (s *CacheStore) Put(ctx context.Context, f domain.FilterState, entry CacheEntry) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	key := f.Key()

	s.mu.Lock()
	stored := entry.clone()
	stored.Filter = f
	stored.FetchedAt = s.now()
	stored.UsageCount = 1
	if prev, ok := s.entries[key]; ok {
		stored.UsageCount = prev.UsageCount + 1
	}
	s.entries[key] = &stored
	s.pruneLocked(key)
	snapshot := stored.clone()
	s.mu.Unlock()

	s.save(ctx, &snapshot)
}

// Merge дописывает в запись товары следующей страницы. Перечитывает текущую
// запись под блокировкой; если записи нет или курсор не продвигается вперёд,
// ничего не делает и возвращает false.
func (s *CacheStore) Merge(ctx context.Context, f domain.FilterState, extra []domain.Product, cursor int, hasMore bool) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	entry, ok := s.entries[f.Key()]
	if !ok || cursor <= entry.Cursor {
		s.mu.Unlock()
		return false
	}

	entry.Products = appendUnique(entry.Products, extra)
	entry.Cursor = cursor
	entry.HasMore = hasMore
	entry.FetchedAt = s.now()
	if entry.Ahead != nil && entry.Ahead.Offset < cursor {
		entry.Ahead = nil
	}
	snapshot := entry.clone()
	s.mu.Unlock()

	s.save(ctx, &snapshot)
	return true
}

// StashAhead прикрепляет к записи предзагруженную страницу, если она начинается
// ровно с курсора записи.
func (s *CacheStore) StashAhead(ctx context.Context, f domain.FilterState, page *Page) bool {
	if page == nil {
		return false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	entry, ok := s.entries[f.Key()]
	if !ok || page.Offset != entry.Cursor {
		s.mu.Unlock()
		return false
	}

	entry.Ahead = page.clone()
	entry.FetchedAt = s.now()
	snapshot := entry.clone()
	s.mu.Unlock()

	s.save(ctx, &snapshot)
	return true
}

// Prune удаляет из памяти половину записей с наименьшим UsageCount, если их больше MaxEntries.
func (s *CacheStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked("")
}

// pruneLocked не трогает ключ keep: это запись, которую только что положили.
func (s *CacheStore) pruneLocked(keep string) int {
	if len(s.entries) <= s.maxEntries {
		return 0
	}

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		if k != keep {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := s.entries[keys[i]], s.entries[keys[j]]
		if a.UsageCount != b.UsageCount {
			return a.UsageCount < b.UsageCount
		}
		return a.FetchedAt.Before(b.FetchedAt)
	})

	n := len(s.entries) / 2
	if n > len(keys) {
		n = len(keys)
	}
	for _, k := range keys[:n] {
		delete(s.entries, k)
	}
	s.stats.Evictions += uint64(n)

	return n
}

// Invalidate удаляет запись фильтра из обоих уровней.
func (s *CacheStore) Invalidate(ctx context.Context, f domain.FilterState) {
	s.remove(ctx, []domain.FilterState{f})
}

// InvalidateCategory удаляет записи категории по всем вариантам сортировки.
func (s *CacheStore) InvalidateCategory(ctx context.Context, category string) {
	filters := make([]domain.FilterState, 0, len(allSorts))
	for _, sortBy := range allSorts {
		filters = append(filters, domain.FilterState{Category: category, SortBy: sortBy})
	}
	s.remove(ctx, filters)
}

// Clear удаляет все записи: из памяти и все известные ключи из хранилища.
func (s *CacheStore) Clear(ctx context.Context) {
	categories := domain.Categories()
	filters := make([]domain.FilterState, 0, (len(categories)+1)*len(allSorts))
	for _, sortBy := range allSorts {
		filters = append(filters, domain.FilterState{Category: domain.CategoryAll, SortBy: sortBy})
		for _, c := range categories {
			filters = append(filters, domain.FilterState{Category: c.Value, SortBy: sortBy})
		}
	}

	s.mu.Lock()
	s.entries = make(map[string]*CacheEntry)
	s.mu.Unlock()

	s.remove(ctx, filters)
}

func (s *CacheStore) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.Entries = len(s.entries)
	return stats
}

var allSorts = []domain.SortBy{domain.SortNewest, domain.SortPriceLow, domain.SortPriceHigh, domain.SortRating}

func (s *CacheStore) remove(ctx context.Context, filters []domain.FilterState) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	keys := make([]string, 0, len(filters))
	s.mu.Lock()
	for _, f := range filters {
		delete(s.entries, f.Key())
		keys = append(keys, s.persistedKey(f))
	}
	s.mu.Unlock()

	if s.persister == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storageTimeout)
	defer cancel()

	if err := s.persister.RemoveItem(ctx, keys...); err != nil {
		s.storageFailed("remove", err)
	}
}

// load читает запись из хранилища. Любая ошибка — промах.
func (s *CacheStore) load(ctx context.Context, f domain.FilterState) (*CacheEntry, bool) {
	if s.persister == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	raw, ok, err := s.persister.GetItem(ctx, s.persistedKey(f))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.storageFailed("read", err)
		}
		return nil, false
	}
	if !ok {
		return nil, false
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		s.storageFailed("decode", err)
		return nil, false
	}
	if entry.Filter.Key() != f.Key() {
		s.storageFailed("decode", e.ErrCacheEntryCorrupted)
		return nil, false
	}

	return entry, true
}

// save пишет запись в хранилище. Отмена ctx вызывающего запись не прерывает,
// время ограничено storageTimeout.
func (s *CacheStore) save(ctx context.Context, entry *CacheEntry) {
	if s.persister == nil {
		return
	}

	raw, err := encodeEntry(entry)
	if err != nil {
		s.storageFailed("encode", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storageTimeout)
	defer cancel()

	if err := s.persister.SetItem(ctx, s.persistedKey(entry.Filter), raw); err != nil {
		s.storageFailed("write", err)
	}
}

func (s *CacheStore) storageFailed(action string, err error) {
	s.mu.Lock()
	s.stats.StorageFailures++
	s.mu.Unlock()

	s.logger.Warnf("catalog cache %s skipped: %v", action, e.Wrap(e.ErrStorageUnavailable.Error(), err))
}

// appendUnique дописывает товары, которых ещё нет в списке (по ID).
func appendUnique(dst []domain.Product, extra []domain.Product) []domain.Product {
	seen := make(map[string]struct{}, len(dst)+len(extra))
	for _, p := range dst {
		seen[p.ID] = struct{}{}
	}
	for _, p := range extra {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		dst = append(dst, p)
	}
	return dst
}
