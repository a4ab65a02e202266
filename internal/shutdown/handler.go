package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler manages graceful shutdown
type Handler struct {
	ctx        context.Context
	cancel     context.CancelFunc
	cleanupFns []func()
	mu         sync.Mutex
	once       sync.Once
}

// New creates a new shutdown handler
func New() *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the shutdown context
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers a cleanup function to be called on shutdown
func (h *Handler) AddCleanup(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanupFns = append(h.cleanupFns, fn)
}

// Listen starts listening for shutdown signals.
// A second signal exits immediately without running cleanup again.
func (h *Handler) Listen() {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		h.Shutdown()
		<-sigChan
		os.Exit(1)
	}()
}

// Shutdown cancels the context and runs cleanup functions in reverse
// registration order, at most once.
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		h.cancel()

		h.mu.Lock()
		fns := h.cleanupFns
		h.mu.Unlock()

		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	})
}
