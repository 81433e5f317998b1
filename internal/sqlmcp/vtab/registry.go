package vtab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

// HandleID identifies an in-flight remote operation. Zero means no handle.
type HandleID uint64

// HandleState is the lifecycle of a stream handle.
type HandleState uint8

const (
	HandleActive HandleState = iota
	HandleDrained
	HandleClosed
)

func (s HandleState) String() string {
	switch s {
	case HandleActive:
		return "Active"
	case HandleDrained:
		return "Drained"
	case HandleClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Streamer is the stream-handle capability the streaming cursors consume.
type Streamer interface {
	StartEnumeration() (HandleID, error)
	StartInvocation(name, arguments string) (HandleID, error)
	// AwaitNext blocks until the next event of the handle or until timeout.
	// ok is false on timeout and for unknown or drained handles.
	AwaitNext(id HandleID, timeout time.Duration) (ev Event, ok bool)
	// Release cancels the producer and discards queued events. Releasing
	// zero, an unknown or an already released handle is a no-op.
	Release(id HandleID)
}

// producer drives one remote operation, emitting Item or Text events until
// emit reports the handle is gone. Its return value becomes the terminal
// event: nil maps to Done, an error to Error.
type producer func(ctx context.Context, emit func(Event) bool) error

type handle struct {
	id     HandleID
	events chan Event
	cancel context.CancelFunc
	state  HandleState
}

// Registry issues stream handles over a Remote. Each handle owns a bounded
// queue filled by its own goroutine.
type Registry struct {
	remote    Remote
	queueSize int

	mu      sync.Mutex
	seq     uint64
	handles map[HandleID]*handle
	closed  bool
	wg      sync.WaitGroup
}

var _ Streamer = (*Registry)(nil)

// NewRegistry creates a Registry. queueSize bounds every handle's queue.
func NewRegistry(remote Remote, queueSize int) *Registry {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Registry{
		remote:    remote,
		queueSize: queueSize,
		handles:   make(map[HandleID]*handle),
	}
}

// StartEnumeration starts a tools/list stream. Each tool becomes an Item.
func (r *Registry) StartEnumeration() (HandleID, error) {
	return r.start("list", func(ctx context.Context, emit func(Event) bool) error {
		return r.remote.ListTools(ctx, func(tool string) bool {
			return emit(ItemEvent(tool))
		})
	})
}

// StartInvocation starts a tools/call stream. Each output chunk becomes a Text.
func (r *Registry) StartInvocation(name, arguments string) (HandleID, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: %w", ErrStartFailed, ErrMissingArguments)
	}
	args, err := NormalizeArguments(arguments)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStartFailed, err)
	}
	return r.start("call "+name, func(ctx context.Context, emit func(Event) bool) error {
		return r.remote.CallTool(ctx, name, args, func(chunk string) bool {
			return emit(TextEvent(chunk))
		})
	})
}

func (r *Registry) start(op string, p producer) (HandleID, error) {
	if err := r.remote.Ready(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, fmt.Errorf("%w: %w", ErrStartFailed, ErrRegistryClosed)
	}
	r.seq++
	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{
		id:     HandleID(r.seq),
		events: make(chan Event, r.queueSize),
		cancel: cancel,
	}
	r.handles[h.id] = h
	r.wg.Add(1)
	r.mu.Unlock()

	logger.Debug("[VTab] stream %d started: %s", h.id, op)
	go r.run(ctx, h, p)
	return h.id, nil
}

func (r *Registry) run(ctx context.Context, h *handle, p producer) {
	defer r.wg.Done()

	emit := func(ev Event) bool {
		select {
		case h.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	err := p(ctx, emit)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		emit(ErrorEvent(err.Error()))
		return
	}
	emit(DoneEvent())
}

func (r *Registry) AwaitNext(id HandleID, timeout time.Duration) (Event, bool) {
	r.mu.Lock()
	h, ok := r.handles[id]
	if !ok || h.state != HandleActive {
		r.mu.Unlock()
		return Event{}, false
	}
	events := h.events
	r.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-events:
		if ev.Terminal() {
			r.mu.Lock()
			if h.state == HandleActive {
				h.state = HandleDrained
			}
			r.mu.Unlock()
		}
		return ev, true
	case <-timer.C:
		logger.Debug("[VTab] stream %d: no event within %s", id, timeout)
		return Event{}, false
	}
}

func (r *Registry) Release(id HandleID) {
	if id == 0 {
		return
	}
	r.mu.Lock()
	h, ok := r.handles[id]
	if ok {
		h.state = HandleClosed
		delete(r.handles, id)
	}
	r.mu.Unlock()

	if ok {
		h.cancel()
		logger.Debug("[VTab] stream %d released", id)
	}
}

// State reports the lifecycle state of a handle. Unknown handles are Closed.
func (r *Registry) State(id HandleID) HandleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[id]; ok {
		return h.state
	}
	return HandleClosed
}

// Active returns the number of unreleased handles.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Close releases every handle, refuses new ones and waits for the
// producers to return.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed = true
	handles := r.handles
	r.handles = make(map[HandleID]*handle)
	r.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
	r.wg.Wait()
	return nil
}
