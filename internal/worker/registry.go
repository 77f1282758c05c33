package worker

import (
	"context"
	"path/filepath"
	"sync"
)

// Handle controls one running worker. Stop cancels the loop; Wait blocks
// until it has fully exited, including the final repair pass.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop requests the worker to exit. It does not wait.
func (h *Handle) Stop() {
	h.cancel()
}

// Wait blocks until the worker goroutine has returned.
func (h *Handle) Wait() {
	<-h.done
}

// Registry enforces at most one running worker per backing store, keyed by
// the store's resolved path. It replaces implicit global state with a value
// owned by whichever component starts workers.
type Registry struct {
	mu      sync.Mutex
	running map[string]*Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{running: make(map[string]*Handle)}
}

// Start launches the worker's polling loop in a goroutine. If a worker is
// already running against the same store, Start is a no-op and returns the
// existing handle with started=false.
func (r *Registry) Start(ctx context.Context, w *Worker) (handle *Handle, started bool) {
	key := resolveKey(w.store.Path())

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.running[key]; ok {
		return existing, false
	}

	runCtx, cancel := context.WithCancel(ctx)
	handle = &Handle{cancel: cancel, done: make(chan struct{})}
	r.running[key] = handle

	go func() {
		defer func() {
			cancel()
			close(handle.done)
			r.mu.Lock()
			delete(r.running, key)
			r.mu.Unlock()
		}()
		w.run(runCtx)
	}()
	return handle, true
}

// resolveKey canonicalizes a store path so two spellings of the same file
// map to one worker.
func resolveKey(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}
