package mcp

import (
	"context"
	"testing"
	"time"
)

func TestModuleReloadsWatchedConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `{"mcpServers":{}}`)

	cfg, err := LoadMCPConfig(path)
	if err != nil {
		t.Fatalf("LoadMCPConfig: %v", err)
	}
	reloaded := make(chan error, 4)
	m, err := (&Config{
		MCPConfig:  cfg,
		ConfigFile: path,
		Watch:      true,
		OnReload:   func(err error) { reloaded <- err },
	}).Complete().New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	if names := m.Manager.ServerNames(); len(names) != 0 {
		t.Fatalf("ServerNames() = %v", names)
	}

	// A server that cannot start still replaces the configuration.
	writeConfig(t, dir, `{"mcpServers":{"broken":{"command":"/nonexistent/mcp-server"}}}`)
	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
	if names := m.Manager.ServerNames(); len(names) != 1 || names[0] != "broken" {
		t.Fatalf("ServerNames() = %v", names)
	}
	if st := m.Manager.ServerStatus("broken"); st == ServerStatusConnected {
		t.Fatalf("status = %s", st)
	}
}
