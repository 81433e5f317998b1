package vtab

import (
	"context"
	"fmt"
	"time"
)

// Remote is the MCP transport the adapter drives. Tools and call results
// travel as JSON text.
type Remote interface {
	// Ready reports whether the remote can accept operations.
	Ready() error
	// ListTools emits each tool of the catalog, page by page, until emit
	// returns false or the catalog is exhausted.
	ListTools(ctx context.Context, emit func(tool string) bool) error
	// CallTool invokes a tool and emits its output chunks.
	CallTool(ctx context.Context, name, arguments string, emit func(text string) bool) error
	// ToolsJSON returns the full catalog as {"tools": [...]}.
	ToolsJSON(ctx context.Context) (string, error)
	// CallToolJSON invokes a tool and returns its result object.
	CallToolJSON(ctx context.Context, name, arguments string) (string, error)
}

// Fetcher is the one-shot capability the cached and fresh cursors consume.
type Fetcher interface {
	FetchCatalog(ctx context.Context) (Catalog, error)
	InvokeFresh(ctx context.Context, name, arguments string) (CallResult, error)
}

// CatalogFailurePolicy decides how a failed catalog fetch reaches the engine
// in the cached enumeration table.
type CatalogFailurePolicy string

const (
	// CatalogFailureEmpty ends the scan with zero rows and logs the failure.
	CatalogFailureEmpty CatalogFailurePolicy = "empty"
	// CatalogFailureError fails the scan, as the streaming enumeration does.
	CatalogFailureError CatalogFailurePolicy = "error"
)

const DefaultQueueSize = 64

// Options tunes scans.
type Options struct {
	ListPollTimeout  time.Duration
	CallFirstTimeout time.Duration
	CallNextTimeout  time.Duration
	// CallTimeout bounds one-shot fetches and fresh invocations.
	CallTimeout    time.Duration
	QueueSize      int
	CatalogFailure CatalogFailurePolicy
}

// DefaultOptions returns the standard scan pacing.
func DefaultOptions() Options {
	return Options{
		ListPollTimeout:  100 * time.Millisecond,
		CallFirstTimeout: 5 * time.Second,
		CallNextTimeout:  1 * time.Second,
		CallTimeout:      30 * time.Second,
		QueueSize:        DefaultQueueSize,
		CatalogFailure:   CatalogFailureEmpty,
	}
}

// Backend bundles everything a table needs. One Backend serves one engine
// connection.
type Backend struct {
	Streams Streamer
	Fetch   Fetcher
	Store   RelationStore
	Options Options

	registry *Registry
}

// NewBackend wires a Registry and a Fetcher over remote.
func NewBackend(remote Remote, store RelationStore, opts Options) *Backend {
	reg := NewRegistry(remote, opts.QueueSize)
	return &Backend{
		Streams:  reg,
		Fetch:    NewRemoteFetcher(remote),
		Store:    store,
		Options:  opts,
		registry: reg,
	}
}

// Close shuts down the registry created by NewBackend.
func (b *Backend) Close() error {
	if b.registry != nil {
		return b.registry.Close()
	}
	return nil
}

// remoteFetcher parses the JSON documents of a Remote.
type remoteFetcher struct {
	remote Remote
}

// NewRemoteFetcher returns a Fetcher backed by remote.
func NewRemoteFetcher(remote Remote) Fetcher {
	return &remoteFetcher{remote: remote}
}

func (f *remoteFetcher) FetchCatalog(ctx context.Context) (Catalog, error) {
	if err := f.remote.Ready(); err != nil {
		return Catalog{}, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}
	raw, err := f.remote.ToolsJSON(ctx)
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}
	cat, err := ParseCatalog(raw)
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}
	return cat, nil
}

func (f *remoteFetcher) InvokeFresh(ctx context.Context, name, arguments string) (CallResult, error) {
	if err := f.remote.Ready(); err != nil {
		return CallResult{}, fmt.Errorf("%w: %w", ErrInvoke, err)
	}
	args, err := NormalizeArguments(arguments)
	if err != nil {
		return CallResult{}, err
	}
	raw, err := f.remote.CallToolJSON(ctx, name, args)
	if err != nil {
		return CallResult{}, fmt.Errorf("%w: %s: %w", ErrInvoke, name, err)
	}
	res, err := ParseCallResult(raw)
	if err != nil {
		return CallResult{}, fmt.Errorf("%w: %s: %w", ErrInvoke, name, err)
	}
	if res.IsError() {
		return CallResult{}, fmt.Errorf("%w: %s: %w", ErrInvoke, name, &RemoteError{Message: res.ErrorText()})
	}
	return res, nil
}
