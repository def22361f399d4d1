package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/osgraph/internal/store"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("writer: closed")

// Config tunes a Writer.
type Config struct {
	// QueueSize bounds the number of distinct records waiting to be written.
	QueueSize int
	// Workers is the number of goroutines draining the queue.
	Workers int
}

// DefaultConfig returns the default writer configuration.
func DefaultConfig() Config {
	return Config{QueueSize: 256, Workers: 1}
}

type key struct {
	collection string
	id         string
}

type waiter struct {
	upTo uint64
	done chan struct{}
}

// Writer drains coalesced record snapshots into a store in the background.
type Writer struct {
	st     store.Store
	logger *slog.Logger
	size   int

	mu      sync.Mutex
	cond    *sync.Cond
	pending map[key]store.Record
	order   []key
	// seq numbers queued slots in enqueue order; seqs holds the number of
	// each queued slot and inflight the number of each background write.
	// Synchronous writes are in flight with number 0.
	seq      uint64
	seqs     map[key]uint64
	inflight map[key]uint64
	waiters  []waiter
	firstErr error
	closed   bool

	group *errgroup.Group
}

// New starts a Writer with cfg.Workers goroutines draining into st. Zero
// values in cfg fall back to DefaultConfig.
func New(st store.Store, cfg Config, logger *slog.Logger) *Writer {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Writer{
		st:       st,
		logger:   logger,
		size:     cfg.QueueSize,
		pending:  make(map[key]store.Record),
		seqs:     make(map[key]uint64),
		inflight: make(map[key]uint64),
		group:    &errgroup.Group{},
	}
	w.cond = sync.NewCond(&w.mu)
	for i := 0; i < cfg.Workers; i++ {
		w.group.Go(w.work)
	}
	return w
}

// Enqueue schedules rec to be saved into collection. If a snapshot of the
// same record is already waiting it is replaced. Enqueue blocks while the
// queue is full.
func (w *Writer) Enqueue(collection string, rec store.Record) error {
	k := key{collection, rec.ID}
	rec = rec.Clone()

	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		if w.closed {
			return ErrClosed
		}
		if _, ok := w.pending[k]; ok {
			w.pending[k] = rec
			return nil
		}
		if len(w.order) < w.size {
			break
		}
		w.cond.Wait()
	}
	w.seq++
	w.pending[k] = rec
	w.seqs[k] = w.seq
	w.order = append(w.order, k)
	pendingWrites.Inc()
	w.cond.Broadcast()
	return nil
}

// Save writes rec synchronously. Any older queued snapshot of the same record
// is dropped and an in-flight write of it is waited for first.
func (w *Writer) Save(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	k := key{collection, rec.ID}
	w.acquire(k)
	defer w.release(k)
	return w.st.Save(ctx, collection, rec)
}

// Delete removes a record synchronously, discarding any queued snapshot of it.
func (w *Writer) Delete(ctx context.Context, collection, id string) (bool, error) {
	k := key{collection, id}
	w.acquire(k)
	defer w.release(k)
	return w.st.Delete(ctx, collection, id)
}

// Get returns the newest snapshot of a record: the queued one when a write of
// it is pending, otherwise the stored one once any write in flight has landed.
func (w *Writer) Get(ctx context.Context, collection, id string) (store.Record, bool, error) {
	k := key{collection, id}
	w.mu.Lock()
	for {
		if rec, ok := w.pending[k]; ok {
			w.mu.Unlock()
			return rec.Clone(), true, nil
		}
		if _, busy := w.inflight[k]; !busy {
			break
		}
		w.cond.Wait()
	}
	w.mu.Unlock()
	return w.st.Get(ctx, collection, id)
}

// acquire takes exclusive ownership of k, dropping its queued snapshot.
func (w *Writer) acquire(k key) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dropLocked(k)
	for {
		if _, busy := w.inflight[k]; !busy {
			break
		}
		w.cond.Wait()
	}
	w.inflight[k] = 0
}

func (w *Writer) release(k key) {
	w.mu.Lock()
	delete(w.inflight, k)
	w.notifyLocked()
	w.mu.Unlock()
}

func (w *Writer) dropLocked(k key) {
	if _, ok := w.pending[k]; !ok {
		return
	}
	delete(w.pending, k)
	delete(w.seqs, k)
	for i, o := range w.order {
		if o == k {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	pendingWrites.Dec()
}

// Flush blocks until every snapshot enqueued before the call has been written,
// then returns the first write error observed since the previous Flush.
// Snapshots enqueued after the call do not delay it.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	upTo := w.seq
	if w.writtenLocked(upTo) {
		err := w.takeErrLocked()
		w.mu.Unlock()
		return err
	}
	done := make(chan struct{})
	w.waiters = append(w.waiters, waiter{upTo: upTo, done: done})
	w.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.takeErrLocked()
}

// Close flushes outstanding writes and stops the workers. Further Enqueue
// calls return ErrClosed.
func (w *Writer) Close(ctx context.Context) error {
	flushErr := w.Flush(ctx)

	w.mu.Lock()
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()

	if err := w.group.Wait(); err != nil {
		return err
	}
	return flushErr
}

// writtenLocked reports whether every slot numbered up to upTo has left the
// queue and finished writing.
func (w *Writer) writtenLocked(upTo uint64) bool {
	for _, n := range w.seqs {
		if n <= upTo {
			return false
		}
	}
	for _, n := range w.inflight {
		if n != 0 && n <= upTo {
			return false
		}
	}
	return true
}

func (w *Writer) takeErrLocked() error {
	err := w.firstErr
	w.firstErr = nil
	return err
}

func (w *Writer) notifyLocked() {
	w.cond.Broadcast()
	kept := w.waiters[:0]
	for _, wt := range w.waiters {
		if w.writtenLocked(wt.upTo) {
			close(wt.done)
			continue
		}
		kept = append(kept, wt)
	}
	w.waiters = kept
}

// next pops the oldest queued record that is not currently being written.
func (w *Writer) nextLocked() (key, store.Record, bool) {
	for i, k := range w.order {
		if _, busy := w.inflight[k]; busy {
			continue
		}
		rec := w.pending[k]
		delete(w.pending, k)
		w.order = append(w.order[:i], w.order[i+1:]...)
		w.inflight[k] = w.seqs[k]
		delete(w.seqs, k)
		pendingWrites.Dec()
		return k, rec, true
	}
	return key{}, store.Record{}, false
}

func (w *Writer) work() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		k, rec, ok := w.nextLocked()
		if !ok {
			if w.closed && len(w.order) == 0 {
				return nil
			}
			w.cond.Wait()
			continue
		}
		// Room freed for blocked Enqueue callers.
		w.cond.Broadcast()

		w.mu.Unlock()
		err := w.write(k, rec)
		w.mu.Lock()

		delete(w.inflight, k)
		if err != nil && w.firstErr == nil {
			w.firstErr = err
		}
		w.notifyLocked()
	}
}

func (w *Writer) write(k key, rec store.Record) error {
	if _, err := w.st.Save(context.Background(), k.collection, rec); err != nil {
		writeErrors.WithLabelValues(k.collection).Inc()
		w.logger.Error("Background write failed.", "collection", k.collection, "id", k.id, "error", err)
		return fmt.Errorf("writer: save %s/%s: %w", k.collection, k.id, err)
	}
	writesTotal.WithLabelValues(k.collection).Inc()
	w.logger.Debug("Background write completed.", "collection", k.collection, "id", k.id)
	return nil
}
