package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/vtab"
)

// ScanOptions tune how the virtual tables pace and store scans.
type ScanOptions struct {
	ListPollTimeout  time.Duration `json:"list_poll_timeout"  mapstructure:"list-poll-timeout"`
	CallFirstTimeout time.Duration `json:"call_first_timeout" mapstructure:"call-first-timeout"`
	CallNextTimeout  time.Duration `json:"call_next_timeout"  mapstructure:"call-next-timeout"`
	CallTimeout      time.Duration `json:"call_timeout"       mapstructure:"call-timeout"`
	QueueSize        int           `json:"queue_size"         mapstructure:"queue-size"`
	CacheStore       string        `json:"cache_store"        mapstructure:"cache-store"`
	CatalogFailure   string        `json:"catalog_failure"    mapstructure:"catalog-failure"`
}

// NewScanOptions returns the standard scan pacing.
func NewScanOptions() *ScanOptions {
	d := vtab.DefaultOptions()
	return &ScanOptions{
		ListPollTimeout:  d.ListPollTimeout,
		CallFirstTimeout: d.CallFirstTimeout,
		CallNextTimeout:  d.CallNextTimeout,
		CallTimeout:      d.CallTimeout,
		QueueSize:        d.QueueSize,
		CacheStore:       "temp",
		CatalogFailure:   string(d.CatalogFailure),
	}
}

func (o *ScanOptions) Validate() []error {
	var errs []error
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"scan.list-poll-timeout", o.ListPollTimeout},
		{"scan.call-first-timeout", o.CallFirstTimeout},
		{"scan.call-next-timeout", o.CallNextTimeout},
		{"scan.call-timeout", o.CallTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.d))
		}
	}
	if o.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("scan.queue-size must be positive, got %d", o.QueueSize))
	}
	switch o.CacheStore {
	case "temp", "memory":
	default:
		errs = append(errs, fmt.Errorf("scan.cache-store must be temp or memory, got %q", o.CacheStore))
	}
	switch vtab.CatalogFailurePolicy(o.CatalogFailure) {
	case vtab.CatalogFailureEmpty, vtab.CatalogFailureError:
	default:
		errs = append(errs, fmt.Errorf("scan.catalog-failure must be empty or error, got %q", o.CatalogFailure))
	}
	return errs
}

func (o *ScanOptions) AddFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&o.ListPollTimeout, "scan.list-poll-timeout", o.ListPollTimeout, "How long a streaming tool listing waits for the next row before ending the scan.")
	fs.DurationVar(&o.CallFirstTimeout, "scan.call-first-timeout", o.CallFirstTimeout, "How long a streaming tool call waits for its first row.")
	fs.DurationVar(&o.CallNextTimeout, "scan.call-next-timeout", o.CallNextTimeout, "How long a streaming tool call waits for each following row.")
	fs.DurationVar(&o.CallTimeout, "scan.call-timeout", o.CallTimeout, "Deadline of one-shot catalog fetches and tool calls.")
	fs.IntVar(&o.QueueSize, "scan.queue-size", o.QueueSize, "Buffered events per running remote request.")
	fs.StringVar(&o.CacheStore, "scan.cache-store", o.CacheStore, "Where cached tool catalogs live: temp or memory.")
	fs.StringVar(&o.CatalogFailure, "scan.catalog-failure", o.CatalogFailure, "How a failed cached catalog fetch surfaces: empty or error.")
}

// VTabOptions converts the options to table options.
func (o *ScanOptions) VTabOptions() vtab.Options {
	return vtab.Options{
		ListPollTimeout:  o.ListPollTimeout,
		CallFirstTimeout: o.CallFirstTimeout,
		CallNextTimeout:  o.CallNextTimeout,
		CallTimeout:      o.CallTimeout,
		QueueSize:        o.QueueSize,
		CatalogFailure:   vtab.CatalogFailurePolicy(o.CatalogFailure),
	}
}
