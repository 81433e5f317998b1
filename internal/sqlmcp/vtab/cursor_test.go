package vtab

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func streamTable(t *testing.T, kind Kind, s Streamer) *Table {
	t.Helper()
	tbl, err := NewTable(kind, &Backend{Streams: s, Store: NewMemoryStore(), Options: testOptions()}, nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func boundPlan(t *testing.T, tbl *Table) *IndexInfo {
	t.Helper()
	info := &IndexInfo{Constraints: []Constraint{
		{Column: ColToolName, Op: OpEQ, Usable: true},
		{Column: ColArguments, Op: OpEQ, Usable: true},
	}}
	if err := tbl.BestIndex(info); err != nil {
		t.Fatalf("BestIndex: %v", err)
	}
	return info
}

func TestStreamEnumerationRows(t *testing.T) {
	s := newScriptedStreamer(
		ItemEvent(`{"name":"A","description":"first"}`),
		ItemEvent(`{"name":"B"}`),
		DoneEvent(),
	)
	tbl := streamTable(t, KindListTools, s)
	c, _ := tbl.Open()

	if err := c.Filter(0, "", nil); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	names, ids, err := drain(c, 0)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if !reflect.DeepEqual(names, []any{"A", "B"}) {
		t.Fatalf("names = %v", names)
	}
	if !reflect.DeepEqual(ids, []int64{0, 1}) {
		t.Fatalf("rowids = %v", ids)
	}
	if s.released[1] != 1 {
		t.Fatalf("handle released %d times at EOF", s.released[1])
	}

	// Next at EOF stays at EOF.
	if err := c.Next(); err != nil || !c.EOF() {
		t.Fatalf("Next at EOF = %v, EOF() = %v", err, c.EOF())
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.released[1] != 1 {
		t.Fatalf("Close released the handle again: %d", s.released[1])
	}
}

func TestStreamEnumerationColumns(t *testing.T) {
	s := newScriptedStreamer(ItemEvent(`{"name":"A","description":"","inputSchema":{"type":"object"}}`), DoneEvent())
	c, _ := streamTable(t, KindListTools, s).Open()
	if err := c.Filter(0, "", nil); err != nil {
		t.Fatalf("Filter: %v", err)
	}

	want := []any{"A", nil, nil, `{"type":"object"}`, nil, nil}
	for col, w := range want {
		got, err := c.Column(col)
		if err != nil || got != w {
			t.Errorf("Column(%d) = %v, %v; want %v", col, got, err, w)
		}
	}
	if got, _ := c.Column(42); got != nil {
		t.Errorf("out of range column = %v", got)
	}
}

func TestStreamEnumerationTimeoutIsEOF(t *testing.T) {
	s := newScriptedStreamer(ItemEvent(`{"name":"A"}`))
	c, _ := streamTable(t, KindListTools, s).Open()

	if err := c.Filter(0, "", nil); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	names, _, err := drain(c, 0)
	if err != nil {
		t.Fatalf("timeout surfaced as error: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("rows = %v", names)
	}
	for _, d := range s.timeouts {
		if d != testOptions().ListPollTimeout {
			t.Fatalf("enumeration waited %s", d)
		}
	}
}

func TestStreamInvocationErrorFirst(t *testing.T) {
	s := newScriptedStreamer(ErrorEvent("boom"))
	tbl := streamTable(t, KindCallTool, s)
	info := boundPlan(t, tbl)
	c, _ := tbl.Open()

	err := c.Filter(info.IdxNum, info.IdxStr, []any{"echo", `{}`})
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Message != "boom" {
		t.Fatalf("Filter error = %v, want RemoteError boom", err)
	}
	if !c.EOF() {
		t.Fatal("cursor has a row after Error")
	}
	if err := c.Next(); err != nil || !c.EOF() {
		t.Fatalf("ERROR state not absorbing: %v", err)
	}
	if s.released[1] != 1 {
		t.Fatalf("handle released %d times", s.released[1])
	}
}

func TestStreamInvocationMidStreamError(t *testing.T) {
	s := newScriptedStreamer(TextEvent("partial"), ErrorEvent("lost connection"))
	tbl := streamTable(t, KindCallTool, s)
	info := boundPlan(t, tbl)
	c, _ := tbl.Open()

	if err := c.Filter(info.IdxNum, info.IdxStr, []any{"echo", `{}`}); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if v, _ := c.Column(ColText); v != "partial" {
		t.Fatalf("first chunk = %v", v)
	}
	if err := c.Next(); err == nil {
		t.Fatal("mid-stream Error did not surface")
	}
	if !c.EOF() {
		t.Fatal("cursor not at EOF after Error")
	}
}

func TestStreamInvocationChunksAndHiddenColumns(t *testing.T) {
	s := newScriptedStreamer(TextEvent("one"), TextEvent("two"), DoneEvent())
	tbl := streamTable(t, KindCallTool, s)
	info := boundPlan(t, tbl)
	c, _ := tbl.Open()
	defer c.Close()

	if err := c.Filter(info.IdxNum, info.IdxStr, []any{"echo", `{"n":2}`}); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if got := s.started; len(got) != 1 || got[0] != (Invocation{Name: "echo", Arguments: `{"n":2}`}) {
		t.Fatalf("started = %+v", got)
	}
	if v, _ := c.Column(ColToolName); v != "echo" {
		t.Fatalf("tool_name = %v", v)
	}
	if v, _ := c.Column(ColArguments); v != `{"n":2}` {
		t.Fatalf("arguments = %v", v)
	}

	texts, ids, err := drain(c, ColText)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if !reflect.DeepEqual(texts, []any{"one", "two"}) || !reflect.DeepEqual(ids, []int64{0, 1}) {
		t.Fatalf("rows = %v ids = %v", texts, ids)
	}

	want := []time.Duration{testOptions().CallFirstTimeout, testOptions().CallNextTimeout, testOptions().CallNextTimeout}
	if !reflect.DeepEqual(s.timeouts, want) {
		t.Fatalf("timeouts = %v, want %v", s.timeouts, want)
	}
}

func TestStreamInvocationInvalidPlan(t *testing.T) {
	s := newScriptedStreamer(DoneEvent())
	tbl := streamTable(t, KindCallTool, s)
	c, _ := tbl.Open()

	if err := c.Filter(PlanInvalid, "", nil); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("err = %v, want ErrInvalidPlan", err)
	}
	if len(s.started) != 0 {
		t.Fatal("invalid plan reached the transport")
	}
	if !c.EOF() {
		t.Fatal("invalid plan produced a row")
	}
}

func TestStreamInvocationMissingArguments(t *testing.T) {
	s := newScriptedStreamer(DoneEvent())
	tbl := streamTable(t, KindCallTool, s)
	info := boundPlan(t, tbl)
	c, _ := tbl.Open()

	if err := c.Filter(info.IdxNum, info.IdxStr, []any{"echo", nil}); !errors.Is(err, ErrMissingArguments) {
		t.Fatalf("err = %v, want ErrMissingArguments", err)
	}
	if len(s.started) != 0 {
		t.Fatal("missing arguments reached the transport")
	}
}

func TestStreamStartFailure(t *testing.T) {
	s := newScriptedStreamer()
	s.startErr = ErrStartFailed
	c, _ := streamTable(t, KindListTools, s).Open()

	if err := c.Filter(0, "", nil); !errors.Is(err, ErrStartFailed) {
		t.Fatalf("err = %v, want ErrStartFailed", err)
	}
	if !c.EOF() {
		t.Fatal("failed start produced a row")
	}
}

func TestStreamCloseWithoutFilter(t *testing.T) {
	s := newScriptedStreamer()
	c, _ := streamTable(t, KindCallTool, s).Open()
	for i := 0; i < 2; i++ {
		if err := c.Close(); err != nil {
			t.Fatalf("Close #%d: %v", i+1, err)
		}
	}
	if len(s.released) != 0 {
		t.Fatalf("Close without Filter released %v", s.released)
	}
}

func TestStreamCloseBeforeEOFReleasesOnce(t *testing.T) {
	s := newScriptedStreamer(ItemEvent(`{"name":"A"}`), ItemEvent(`{"name":"B"}`), DoneEvent())
	c, _ := streamTable(t, KindListTools, s).Open()
	if err := c.Filter(0, "", nil); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	_ = c.Close()
	_ = c.Close()
	if s.released[1] != 1 {
		t.Fatalf("released %d times", s.released[1])
	}
	if v, _ := c.Column(0); v != nil {
		t.Fatalf("row buffer survived Close: %v", v)
	}
}

func TestStreamRefilterReleasesPreviousHandle(t *testing.T) {
	s := newScriptedStreamer(ItemEvent(`{"name":"A"}`), DoneEvent())
	c, _ := streamTable(t, KindListTools, s).Open()
	defer c.Close()

	for i := 0; i < 2; i++ {
		if err := c.Filter(0, "", nil); err != nil {
			t.Fatalf("Filter #%d: %v", i+1, err)
		}
	}
	if s.released[1] != 1 {
		t.Fatalf("first handle released %d times", s.released[1])
	}
	if v, _ := c.Column(0); v != "A" {
		t.Fatalf("second scan row = %v", v)
	}
}

func TestStreamOverRegistry(t *testing.T) {
	remote := newFakeRemote(`{"name":"a"}`, `{"name":"b"}`, `{"name":"c"}`)
	b := NewBackend(remote, NewMemoryStore(), testOptions())
	defer b.Close()

	tbl, err := NewTable(KindListTools, b, nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	c, _ := tbl.Open()
	if err := c.Filter(0, "", nil); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	names, _, err := drain(c, 0)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if !reflect.DeepEqual(names, []any{"a", "b", "c"}) {
		t.Fatalf("names = %v", names)
	}
	_ = c.Close()
	if n := b.registry.Active(); n != 0 {
		t.Fatalf("%d handles left after Close", n)
	}
}
