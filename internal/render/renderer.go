package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gyaneshwarpardhi/watchsource/internal/catalog"
	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
	"github.com/gyaneshwarpardhi/watchsource/internal/metrics"
)

// ErrUnknownWatch is returned for an id that is not in the active catalog.
var ErrUnknownWatch = errors.New("unknown watch")

// Sink receives one rendered document. Export calls it from a single
// goroutine, in catalog order.
type Sink func(id string, data []byte) error

// Renderer serves documents from the active catalog.
type Renderer struct {
	cat     atomic.Pointer[catalog.Catalog]
	workers atomic.Int64
	cache   atomic.Pointer[lru.Cache[string, []byte]]
	log     *slog.Logger
}

// New creates a Renderer over cat. workers bounds Export concurrency.
func New(cat *catalog.Catalog, workers int, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	r := &Renderer{log: log}
	if cat == nil {
		cat = catalog.New()
	}
	r.Swap(cat)
	r.SetWorkers(workers)
	return r
}

// Catalog returns the active catalog.
func (r *Renderer) Catalog() *catalog.Catalog {
	return r.cat.Load()
}

// Swap atomically replaces the catalog (used on hot-reload) and returns the previous one.
func (r *Renderer) Swap(c *catalog.Catalog) *catalog.Catalog {
	old := r.cat.Swap(c)
	metrics.CatalogWatches.Set(float64(c.Len()))
	if old != nil {
		ch := c.Diff(old)
		r.log.Info("catalog swapped",
			"watches", c.Len(), "added", ch.Added, "removed", ch.Removed, "changed", ch.Changed)
	}
	return old
}

// SetWorkers changes Export concurrency. Values below 1 mean 1.
func (r *Renderer) SetWorkers(n int) {
	r.workers.Store(int64(max(n, 1)))
}

// Workers returns the Export concurrency.
func (r *Renderer) Workers() int {
	return int(r.workers.Load())
}

// EnableCache keeps up to size rendered documents, keyed by revision and
// format. A revision fixes the exact bytes of every format, so entries stay
// valid across catalog swaps. size 0 disables caching.
func (r *Renderer) EnableCache(size int) error {
	if size == 0 {
		r.cache.Store(nil)
		return nil
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return fmt.Errorf("render cache: %w", err)
	}
	r.cache.Store(c)
	return nil
}

// Render encodes the watch id from the active catalog as ct.
func (r *Renderer) Render(id string, ct doc.ContentType) ([]byte, error) {
	return r.render(r.cat.Load(), id, ct)
}

func (r *Renderer) render(cat *catalog.Catalog, id string, ct doc.ContentType) ([]byte, error) {
	e := cat.Entry(id)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWatch, id)
	}
	cache := r.cache.Load()
	key := e.Revision + "/" + ct.String()
	if cache != nil {
		if out, ok := cache.Get(key); ok {
			metrics.RenderCacheHits.Inc()
			return slices.Clone(out), nil
		}
	}

	start := time.Now()
	out, err := e.Source.ToBytes(ct)
	if err != nil {
		metrics.RendersTotal.WithLabelValues(ct.String(), "error").Inc()
		return nil, err
	}
	metrics.RendersTotal.WithLabelValues(ct.String(), "success").Inc()
	metrics.RenderDuration.WithLabelValues(ct.String()).Observe(float64(time.Since(start).Microseconds()) / 1000)
	if cache != nil {
		cache.Add(key, slices.Clone(out))
	}
	return out, nil
}

// Export renders every watch of the active catalog concurrently and hands
// the documents to sink in catalog order. It stops at the first render or
// sink error, or when ctx is done, and returns how many documents reached
// the sink.
func (r *Renderer) Export(ctx context.Context, ct doc.ContentType, sink Sink) (int, error) {
	cat := r.cat.Load()
	ids := cat.IDs()
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	pool := newWorkerPool(ctx, min(r.Workers(), len(ids)), len(ids),
		func(ctx context.Context, idx int) ([]byte, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return r.render(cat, ids[idx], ct)
		},
	)
	defer func() {
		cancel()
		pool.Drain()
		metrics.ExportQueueDepth.Set(0)
	}()

	// Both buffers hold every job, so neither Submit nor a worker ever blocks.
	results := make(chan jobResult[int, []byte], len(ids))
	for i := range ids {
		if !pool.Submit(i, results) {
			metrics.ExportsTotal.WithLabelValues("error").Inc()
			return 0, fmt.Errorf("export queue full after %d of %d watches", i, len(ids))
		}
	}
	metrics.ExportQueueDepth.Set(float64(pool.QueueLen()))

	pending := make(map[int][]byte)
	next := 0
	for received := 0; received < len(ids); received++ {
		select {
		case res := <-results:
			metrics.ExportQueueDepth.Set(float64(pool.QueueLen()))
			if res.err != nil {
				metrics.ExportsTotal.WithLabelValues("error").Inc()
				return next, fmt.Errorf("watch %s: %w", ids[res.payload], res.err)
			}
			pending[res.payload] = res.value
			for {
				data, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := sink(ids[next], data); err != nil {
					metrics.ExportsTotal.WithLabelValues("error").Inc()
					return next, fmt.Errorf("sink %s: %w", ids[next], err)
				}
				next++
			}
		case <-ctx.Done():
			metrics.ExportsTotal.WithLabelValues("canceled").Inc()
			return next, ctx.Err()
		}
	}
	metrics.ExportsTotal.WithLabelValues("success").Inc()
	r.log.Debug("export finished", "format", ct.String(), "watches", next)
	return next, nil
}
