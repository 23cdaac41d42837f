package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/store"
)

const (
	queueSize   = 256
	callTimeout = 5 * time.Second
)

// Sink receives catalog changes.
type Sink interface {
	Put(ctx context.Context, p models.Product) error
	Remove(ctx context.Context, id string) error
}

type job struct {
	put    *models.Product
	remove string
}

// Indexer keeps a Sink in step with the catalog. Store notifications are
// queued and applied by one worker so mutations never wait on the index.
type Indexer struct {
	sink Sink

	mu     sync.Mutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup

	unsubscribe func()
}

func NewIndexer(sink Sink) *Indexer {
	return &Indexer{sink: sink, jobs: make(chan job, queueSize)}
}

// Start indexes the current catalog, then follows the store until Stop.
func (ix *Indexer) Start(ctx context.Context, s *store.Store) {
	l := logging.Component(ctx, "search.indexer")

	ix.mu.Lock()
	if ix.closed {
		ix.mu.Unlock()
		l.Warn("indexer_start_after_stop")
		return
	}
	ix.wg.Add(1)
	go func() {
		defer ix.wg.Done()
		for j := range ix.jobs {
			ix.apply(ctx, l, j)
		}
	}()

	ix.mu.Unlock()

	unsubscribe := s.Subscribe(func(ch store.Change) {
		switch ch.Kind {
		case store.ChangeProductCreated, store.ChangeProductUpdated:
			if ch.Product != nil {
				p := *ch.Product
				ix.enqueue(l, job{put: &p})
			}
		case store.ChangeProductDeleted:
			ix.enqueue(l, job{remove: ch.ProductID})
		}
	})
	ix.mu.Lock()
	if ix.closed {
		ix.mu.Unlock()
		unsubscribe()
		return
	}
	ix.unsubscribe = unsubscribe
	ix.mu.Unlock()

	// backfill blocks instead of dropping; Start runs before traffic is served
	products := s.Products()
	for i := range products {
		if !ix.enqueueWait(job{put: &products[i]}) {
			l.Warn("indexer_stopped_during_backfill", "indexed", i)
			return
		}
	}
	l.Info("indexer_started", "products", len(products))
}

func (ix *Indexer) enqueue(l *slog.Logger, j job) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return
	}
	select {
	case ix.jobs <- j:
	default:
		l.Warn("index_queue_full", "remove", j.remove)
	}
}

// enqueueWait is enqueue without the drop: it blocks until the worker takes
// j, and reports false once the indexer has been stopped.
func (ix *Indexer) enqueueWait(j job) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return false
	}
	ix.jobs <- j
	return true
}

func (ix *Indexer) apply(ctx context.Context, l *slog.Logger, j job) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if j.put != nil {
		if err := ix.sink.Put(ctx, *j.put); err != nil {
			l.Error("index_put_error", "product_id", j.put.ID, "error", err)
			return
		}
		l.Debug("index_put_success", "product_id", j.put.ID)
		return
	}
	if err := ix.sink.Remove(ctx, j.remove); err != nil {
		l.Error("index_remove_error", "product_id", j.remove, "error", err)
		return
	}
	l.Debug("index_remove_success", "product_id", j.remove)
}

// Stop detaches from the store and waits for queued jobs to drain.
func (ix *Indexer) Stop() {
	ix.mu.Lock()
	unsubscribe := ix.unsubscribe
	ix.unsubscribe = nil
	if !ix.closed {
		ix.closed = true
		close(ix.jobs)
	}
	ix.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	ix.wg.Wait()
}
