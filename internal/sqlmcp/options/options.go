package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/kiosk404/sqlite-mcp/pkg/utils/json"
)

// Options gathers every configurable part of mcpsql.
type Options struct {
	MCPOptions   *MCPOptions   `json:"mcp"   mapstructure:"mcp"`
	ScanOptions  *ScanOptions  `json:"scan"  mapstructure:"scan"`
	LogOptions   *LogOptions   `json:"log"   mapstructure:"log"`
	ShellOptions *ShellOptions `json:"shell" mapstructure:"shell"`
}

func NewOptions() *Options {
	return &Options{
		MCPOptions:   NewMCPOptions(),
		ScanOptions:  NewScanOptions(),
		LogOptions:   NewLogOptions(),
		ShellOptions: NewShellOptions(),
	}
}

// AddFlags registers all option flags on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.MCPOptions.AddFlags(fs)
	o.ScanOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
	o.ShellOptions.AddFlags(fs)
}

// Validate checks all options and joins the failures.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.MCPOptions.Validate()...)
	errs = append(errs, o.ScanOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.ShellOptions.Validate()...)
	return errors.Join(errs...)
}

func (o *Options) String() string {
	data, _ := json.Marshal(o)

	return string(data)
}
