package sheets

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"agendasync/internal/domain"
	"agendasync/internal/observability"
)

// RowStore is the store contract the dedup decorator wraps.
type RowStore interface {
	Append(ctx context.Context, row domain.Row) error
	List(ctx context.Context) ([]domain.StoredRecord, error)
}

// DedupStore wraps a RowStore and skips appends whose row key was already
// seen inside the TTL window. Best-effort only: the window lives in process
// memory, so a restart forgets it. Re-deliveries land as duplicate rows in
// that case, which matches the store-level non-idempotence the webhook
// sender is built around.
type DedupStore struct {
	inner   RowStore
	cache   *keyCache
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewDedupStore creates the decorator. The clock is injectable so tests can
// advance past the TTL deterministically.
func NewDedupStore(inner RowStore, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *DedupStore {
	return &DedupStore{
		inner:   inner,
		cache:   newKeyCache(maxEntries, ttl, clock),
		metrics: metrics,
		logger:  logger,
	}
}

// Append forwards to the inner store unless the row was already appended
// inside the window, in which case it returns domain.ErrDuplicateRow. The
// key is remembered only after a successful append so a failed append can be
// retried by the sender.
func (d *DedupStore) Append(ctx context.Context, row domain.Row) error {
	key := domain.RowKey(row)
	if d.cache.seen(key) {
		d.metrics.DuplicatesSkipped.Inc()
		d.logger.Warn("duplicate delivery skipped", "row_key", key)
		return domain.ErrDuplicateRow
	}

	if err := d.inner.Append(ctx, row); err != nil {
		return err
	}

	d.cache.remember(key)
	return nil
}

func (d *DedupStore) List(ctx context.Context) ([]domain.StoredRecord, error) {
	return d.inner.List(ctx)
}

// keyCache is a thread-safe LRU of row keys with per-entry expiry.
type keyCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key       string
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newKeyCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *keyCache {
	return &keyCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *keyCache) seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.clock.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return false
	}
	c.moveToFront(e)
	return true
}

func (c *keyCache) remember(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *keyCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *keyCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *keyCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *keyCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
