package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/keysplit/internal/logger"
	"github.com/arloliu/keysplit/types"
)

// ErrWatcherRunning is returned by Start when the watcher is already running.
var ErrWatcherRunning = errors.New("watcher already running")

// Hooks are callbacks for plan changes observed by a Watcher.
//
// Hooks run on the watcher goroutine; a slow hook delays the next update.
type Hooks struct {
	// OnPlanChanged is called when the worker's plan moves to a newer version
	// or is removed. plan is nil after removal. added and removed compare
	// partitions by fingerprint.
	OnPlanChanged func(ctx context.Context, plan *WorkerPlan, added, removed []PartitionDescriptor) error

	// OnError is called when an update cannot be decoded.
	OnError func(ctx context.Context, err error) error
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(l types.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithHooks sets the change callbacks.
func WithHooks(h Hooks) WatcherOption {
	return func(w *Watcher) {
		w.hooks = h
	}
}

// Watcher follows the plan published for one worker.
type Watcher struct {
	kv     jetstream.KeyValue
	key    string
	worker string

	hooks  Hooks
	logger types.Logger

	current atomic.Pointer[WorkerPlan]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher for the plan of worker under prefix.
//
// Example:
//
//	w := publish.NewWatcher(kv, "plan", "worker-0", publish.WithHooks(publish.Hooks{
//	    OnPlanChanged: func(ctx context.Context, plan *publish.WorkerPlan, added, removed []publish.PartitionDescriptor) error {
//	        return reconcile(ctx, added, removed)
//	    },
//	}))
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
//	defer w.Stop()
func NewWatcher(kv jetstream.KeyValue, prefix, worker string, opts ...WatcherOption) *Watcher {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	w := &Watcher{
		kv:     kv,
		key:    prefix + "." + worker,
		worker: worker,
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins watching. The current document, if any, is delivered as the
// first change.
//
// Returns:
//   - error: ErrWatcherRunning if already started, or the KV watch error
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrWatcherRunning
	}

	watchCtx, cancel := context.WithCancel(ctx)
	kw, err := w.kv.Watch(watchCtx, w.key)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to watch plan %s: %w", w.key, err)
	}

	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(watchCtx, kw, w.done)

	return nil
}

// Stop ends watching and waits for the watcher goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Current returns the last plan seen, or nil if none is published.
func (w *Watcher) Current() *WorkerPlan {
	return w.current.Load()
}

func (w *Watcher) run(ctx context.Context, kw jetstream.KeyWatcher, done chan struct{}) {
	defer close(done)
	defer func() {
		if err := kw.Stop(); err != nil {
			w.logger.Warn("failed to stop plan watcher", "key", w.key, "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("plan watcher stopping", "worker", w.worker)
			return
		case entry, ok := <-kw.Updates():
			if !ok {
				return
			}
			if entry == nil {
				// end of initial values
				continue
			}
			w.handle(ctx, entry)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, entry jetstream.KeyValueEntry) {
	old := w.current.Load()

	if op := entry.Operation(); op == jetstream.KeyValueDelete || op == jetstream.KeyValuePurge {
		if old == nil {
			return
		}
		w.current.Store(nil)
		w.logger.Info("plan removed", "worker", w.worker, "old_version", old.Version)
		w.notify(ctx, nil, nil, old.Partitions)

		return
	}

	var next WorkerPlan
	if err := json.Unmarshal(entry.Value(), &next); err != nil {
		w.logger.Error("failed to unmarshal plan", "key", w.key, "error", err)
		if w.hooks.OnError != nil {
			if hookErr := w.hooks.OnError(ctx, fmt.Errorf("decode plan %s: %w", w.key, err)); hookErr != nil {
				w.logger.Warn("plan error hook failed", "error", hookErr)
			}
		}

		return
	}

	var oldParts []PartitionDescriptor
	if old != nil {
		if next.Version <= old.Version {
			return
		}
		oldParts = old.Partitions
	}
	w.current.Store(&next)

	added, removed := diffDescriptors(oldParts, next.Partitions)
	w.logger.Info("plan updated",
		"worker", w.worker,
		"version", next.Version,
		"added", len(added),
		"removed", len(removed),
	)
	w.notify(ctx, &next, added, removed)
}

func (w *Watcher) notify(ctx context.Context, plan *WorkerPlan, added, removed []PartitionDescriptor) {
	if w.hooks.OnPlanChanged == nil {
		return
	}
	if err := w.hooks.OnPlanChanged(ctx, plan, added, removed); err != nil {
		w.logger.Warn("plan change hook failed", "worker", w.worker, "error", err)
	}
}

// diffDescriptors returns the partitions only in next and only in prev.
func diffDescriptors(prev, next []PartitionDescriptor) (added, removed []PartitionDescriptor) {
	seen := make(map[uint64]struct{}, len(prev))
	for _, p := range prev {
		seen[p.Fingerprint] = struct{}{}
	}

	kept := make(map[uint64]struct{}, len(next))
	for _, p := range next {
		kept[p.Fingerprint] = struct{}{}
		if _, ok := seen[p.Fingerprint]; !ok {
			added = append(added, p)
		}
	}
	for _, p := range prev {
		if _, ok := kept[p.Fingerprint]; !ok {
			removed = append(removed, p)
		}
	}

	return added, removed
}
