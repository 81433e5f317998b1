package mcp

import (
	"context"

	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

type Config struct {
	MCPConfig *MCPConfig
	// ConfigFile, when set together with Watch, is reloaded on change.
	ConfigFile string
	Watch      bool
	// OnReload runs after a watched reload was applied.
	OnReload func(err error)
}

// CompletedConfig is the completed configuration for MCP.
type CompletedConfig struct {
	*Config
}

// Complete validates and fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.MCPConfig == nil {
		c.MCPConfig = NewMCPConfig()
	}
	c.MCPConfig.SetDefaults()
	return CompletedConfig{c}
}

// Module is the top-level MCP module.
type Module struct {
	Manager Manager

	watcher *ConfigWatcher
}

// New creates and initializes the MCP module.
func (c CompletedConfig) New(ctx context.Context) (*Module, error) {
	for _, err := range c.MCPConfig.Validate() {
		logger.Warn("[MCP] %v", err)
	}

	mgr := newManager(c.MCPConfig)
	if err := mgr.Initialize(ctx); err != nil {
		logger.Warn("[MCP] initialization had error: %v", err)
	}
	logger.Info("[MCP] module initialized (%d servers configured)", len(c.MCPConfig.MCPServers))

	m := &Module{Manager: mgr}
	if c.Watch && c.ConfigFile != "" {
		w, err := WatchConfig(c.ConfigFile, func(cfg *MCPConfig) {
			err := mgr.Reload(context.Background(), cfg)
			if err != nil {
				logger.Warn("[MCP] reload failed: %v", err)
			}
			if c.OnReload != nil {
				c.OnReload(err)
			}
		})
		if err != nil {
			logger.Warn("[MCP] config watcher disabled: %v", err)
		} else {
			m.watcher = w
		}
	}
	return m, nil
}

// Close releases all resources held by the MCP module.
func (m *Module) Close() error {
	if m.watcher != nil {
		m.watcher.Close()
	}
	if m.Manager != nil {
		return m.Manager.Close()
	}
	return nil
}
