package options

import (
	"errors"

	"github.com/spf13/pflag"
)

// MCPOptions holds options for the MCP client side.
// Servers are described in a standalone mcp.json file.
type MCPOptions struct {
	// ConfigFile is the path to the MCP server file. Default: "mcp.json".
	ConfigFile string `json:"config_file" mapstructure:"config-file"`
	// Server names the mcp.json entry new connections attach to. Empty
	// selects the only configured server, if there is exactly one.
	Server string `json:"server" mapstructure:"server"`
	// Watch reloads ConfigFile when it changes.
	Watch bool `json:"watch" mapstructure:"watch"`
}

// NewMCPOptions creates a default MCPOptions instance.
func NewMCPOptions() *MCPOptions {
	return &MCPOptions{
		ConfigFile: "mcp.json",
		Watch:      true,
	}
}

// Validate checks the MCPOptions for correctness.
func (o *MCPOptions) Validate() []error {
	var errs []error
	if o.ConfigFile == "" {
		errs = append(errs, errors.New("mcp.config-file is required"))
	}
	return errs
}

// AddFlags adds the MCPOptions flags to the given flag set.
func (o *MCPOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "mcp.config-file", o.ConfigFile, "Path to the MCP server configuration file.")
	fs.StringVar(&o.Server, "mcp.server", o.Server, "Name of the server in the MCP configuration file to attach to.")
	fs.BoolVar(&o.Watch, "mcp.watch", o.Watch, "Reconnect when the MCP configuration file changes.")
}
