package config

import (
	"fmt"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/engine/sqlite"
	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/options"
	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/service/mcp"
)

// Config is the running configuration of mcpsql.
type Config struct {
	*options.Options
}

// CreateConfigFromOptions creates a running configuration from validated
// options.
func CreateConfigFromOptions(opts *options.Options) (*Config, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return &Config{opts}, nil
}

// MCPConfig builds the MCP module configuration, loading the server file.
func (c *Config) MCPConfig() (*mcp.Config, error) {
	servers, err := mcp.LoadMCPConfig(c.MCPOptions.ConfigFile)
	if err != nil {
		return nil, err
	}
	return &mcp.Config{
		MCPConfig:  servers,
		ConfigFile: c.MCPOptions.ConfigFile,
		Watch:      c.MCPOptions.Watch,
	}, nil
}

// DriverConfig builds the SQLite driver registration. session resolves the
// session each new connection starts with.
func (c *Config) DriverConfig(session func() *mcp.Session) sqlite.Config {
	return sqlite.Config{
		DriverName:     sqlite.DefaultDriverName,
		Session:        session,
		Options:        c.ScanOptions.VTabOptions(),
		CacheStore:     c.ScanOptions.CacheStore,
		ConnectTimeout: c.ScanOptions.CallTimeout,
	}
}

// SelectServer picks the server new connections attach to: the configured
// one, or the only server in the file.
func (c *Config) SelectServer(names []string) (string, error) {
	if want := c.MCPOptions.Server; want != "" {
		for _, n := range names {
			if n == want {
				return n, nil
			}
		}
		return "", fmt.Errorf("server %q not found in %s", want, c.MCPOptions.ConfigFile)
	}
	switch len(names) {
	case 0:
		return "", nil
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("%s defines %d servers, choose one with --mcp.server", c.MCPOptions.ConfigFile, len(names))
	}
}
