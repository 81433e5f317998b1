package mcp

import (
	"fmt"
	"os"
	"sort"

	"github.com/kiosk404/sqlite-mcp/pkg/utils/json"
)

// Transport names.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// MCPConfig holds the servers a shell can attach to.
// Compatible with the Claude Desktop / VS Code MCP config format.
//
// File format (mcp.json):
//
//	{
//	  "mcpServers": {
//	    "filesystem": {
//	      "transport": "stdio",
//	      "command": "npx",
//	      "args": ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
//	    },
//	    "browser": {
//	      "transport": "streamable-http",
//	      "url": "http://localhost:8931/mcp",
//	      "headers": {"Authorization": "Bearer ..."}
//	    }
//	  }
//	}
type MCPConfig struct {
	MCPServers map[string]*ServerConfig `json:"mcpServers"`
}

// ServerConfig defines how to reach one MCP server.
type ServerConfig struct {
	// Transport is "stdio", "sse" or "streamable-http". Default: "stdio" when
	// a command is set, "streamable-http" when a url is set.
	Transport string `json:"transport,omitempty"`

	// --- stdio transport fields ---

	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	// Env is the subprocess environment, as ["KEY=VALUE", ...].
	Env []string `json:"env,omitempty"`

	// --- http transport fields ---

	URL string `json:"url,omitempty"`
	// Headers are sent with every HTTP request, e.g. Authorization.
	Headers map[string]string `json:"headers,omitempty"`

	// --- common fields ---

	// ToolFilter restricts the catalog to the named tools. Empty exposes all.
	ToolFilter []string `json:"toolFilter,omitempty"`
}

// LoadMCPConfig loads the configuration file at path. A missing file yields
// an empty configuration.
func LoadMCPConfig(path string) (*MCPConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMCPConfig(), nil
		}
		return nil, fmt.Errorf("failed to read MCP config file %q: %w", path, err)
	}

	cfg := &MCPConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse MCP config file %q: %w", path, err)
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]*ServerConfig)
	}
	return cfg, nil
}

// NewMCPConfig creates an empty configuration.
func NewMCPConfig() *MCPConfig {
	return &MCPConfig{
		MCPServers: make(map[string]*ServerConfig),
	}
}

// SetDefaults fills the transport of servers that leave it empty.
func (c *MCPConfig) SetDefaults() {
	for _, srv := range c.MCPServers {
		srv.SetDefaults()
	}
}

func (s *ServerConfig) SetDefaults() {
	if s.Transport != "" {
		return
	}
	if s.Command == "" && s.URL != "" {
		s.Transport = TransportStreamableHTTP
	} else {
		s.Transport = TransportStdio
	}
}

// Validate checks the configuration for obvious errors.
func (c *MCPConfig) Validate() []error {
	var errs []error
	for _, name := range c.Names() {
		if err := c.MCPServers[name].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("mcpServers.%s: %w", name, err))
		}
	}
	return errs
}

func (s *ServerConfig) Validate() error {
	s.SetDefaults()
	switch s.Transport {
	case TransportStdio:
		if s.Command == "" {
			return fmt.Errorf("command is required for stdio transport")
		}
	case TransportSSE, TransportStreamableHTTP:
		if s.URL == "" {
			return fmt.Errorf("url is required for %s transport", s.Transport)
		}
	default:
		return fmt.Errorf("unsupported transport %q (must be 'stdio', 'sse' or 'streamable-http')", s.Transport)
	}
	return nil
}

// Names returns the configured server names in sorted order.
func (c *MCPConfig) Names() []string {
	names := make([]string, 0, len(c.MCPServers))
	for name := range c.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether two server configurations connect the same way.
func (s *ServerConfig) Equal(o *ServerConfig) bool {
	if s == nil || o == nil {
		return s == o
	}
	a, _ := json.Marshal(s)
	b, _ := json.Marshal(o)
	return string(a) == string(b)
}
