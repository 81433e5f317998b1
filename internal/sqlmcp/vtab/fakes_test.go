package vtab

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// fakeRemote is a scripted Remote. Its catalog and call output can be
// changed between scans.
type fakeRemote struct {
	mu        sync.Mutex
	ready     error
	tools     []string
	chunks    map[string][]string
	callErr   error
	listErr   error
	block     bool
	listCalls int
	callCalls int
	lastArgs  string
}

func newFakeRemote(tools ...string) *fakeRemote {
	return &fakeRemote{tools: tools, chunks: map[string][]string{}}
}

func (f *fakeRemote) setTools(tools ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tools = tools
}

func (f *fakeRemote) counts() (list, call int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.callCalls
}

func (f *fakeRemote) Ready() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeRemote) ListTools(ctx context.Context, emit func(string) bool) error {
	f.mu.Lock()
	f.listCalls++
	tools := append([]string(nil), f.tools...)
	err, block := f.listErr, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	for _, t := range tools {
		if !emit(t) {
			return nil
		}
	}
	return err
}

func (f *fakeRemote) CallTool(ctx context.Context, name, arguments string, emit func(string) bool) error {
	f.mu.Lock()
	f.callCalls++
	f.lastArgs = arguments
	chunks := append([]string(nil), f.chunks[name]...)
	err, block := f.callErr, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	for _, c := range chunks {
		if !emit(c) {
			return nil
		}
	}
	return err
}

func (f *fakeRemote) ToolsJSON(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return "", f.listErr
	}
	return `{"tools":[` + strings.Join(f.tools, ",") + `]}`, nil
}

func (f *fakeRemote) CallToolJSON(ctx context.Context, name, arguments string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCalls++
	f.lastArgs = arguments
	if f.callErr != nil {
		return "", f.callErr
	}
	items := make([]string, 0, len(f.chunks[name]))
	for _, c := range f.chunks[name] {
		items = append(items, `{"type":"text","text":"`+c+`"}`)
	}
	return `{"content":[` + strings.Join(items, ",") + `],"isError":false}`, nil
}

// scriptedStreamer replays fixed event sequences and counts releases.
type scriptedStreamer struct {
	script   []Event
	startErr error
	next     HandleID
	queues   map[HandleID][]Event
	released map[HandleID]int
	started  []Invocation
	timeouts []time.Duration
}

func newScriptedStreamer(events ...Event) *scriptedStreamer {
	return &scriptedStreamer{
		script:   events,
		queues:   map[HandleID][]Event{},
		released: map[HandleID]int{},
	}
}

func (s *scriptedStreamer) start() (HandleID, error) {
	if s.startErr != nil {
		return 0, s.startErr
	}
	s.next++
	s.queues[s.next] = append([]Event(nil), s.script...)
	return s.next, nil
}

func (s *scriptedStreamer) StartEnumeration() (HandleID, error) {
	return s.start()
}

func (s *scriptedStreamer) StartInvocation(name, arguments string) (HandleID, error) {
	s.started = append(s.started, Invocation{Name: name, Arguments: arguments})
	return s.start()
}

func (s *scriptedStreamer) AwaitNext(id HandleID, timeout time.Duration) (Event, bool) {
	s.timeouts = append(s.timeouts, timeout)
	q, ok := s.queues[id]
	if !ok || len(q) == 0 {
		return Event{}, false
	}
	ev := q[0]
	s.queues[id] = q[1:]
	return ev, true
}

func (s *scriptedStreamer) Release(id HandleID) {
	s.released[id]++
	delete(s.queues, id)
}

var errBoom = errors.New("boom")

func testOptions() Options {
	opts := DefaultOptions()
	opts.ListPollTimeout = 200 * time.Millisecond
	opts.CallFirstTimeout = time.Second
	opts.CallNextTimeout = 200 * time.Millisecond
	opts.CallTimeout = time.Second
	return opts
}

// drain reads every row of col from a filtered cursor.
func drain(c Cursor, col int) ([]any, []int64, error) {
	var vals []any
	var ids []int64
	for !c.EOF() {
		v, err := c.Column(col)
		if err != nil {
			return vals, ids, err
		}
		id, _ := c.Rowid()
		vals = append(vals, v)
		ids = append(ids, id)
		if err := c.Next(); err != nil {
			return vals, ids, err
		}
	}
	return vals, ids, nil
}
