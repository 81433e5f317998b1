package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/vtab"
	"github.com/kiosk404/sqlite-mcp/pkg/logger"
	"github.com/kiosk404/sqlite-mcp/pkg/utils/json"
	"github.com/kiosk404/sqlite-mcp/pkg/version"
)

// ClientName is announced to servers during the initialize handshake.
const ClientName = "sqlite-mcp"

// ServerStatus represents the connection state of a session.
type ServerStatus int

const (
	ServerStatusDisconnected ServerStatus = iota
	ServerStatusConnecting
	ServerStatusConnected
	ServerStatusError
)

func (s ServerStatus) String() string {
	switch s {
	case ServerStatusDisconnected:
		return "Disconnected"
	case ServerStatusConnecting:
		return "Connecting"
	case ServerStatusConnected:
		return "Connected"
	case ServerStatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ServerInfo is what the server announced during initialize.
type ServerInfo struct {
	Name            string `json:"server"`
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocolVersion"`
	Transport       string `json:"transport"`
}

// Session is one live connection to an MCP server. It implements
// vtab.Remote, so a SQL connection can scan the server's tools.
type Session struct {
	id     uuid.UUID
	name   string
	config *ServerConfig

	mu     sync.RWMutex
	client *client.Client
	info   ServerInfo
	status ServerStatus
	err    error
}

var _ vtab.Remote = (*Session)(nil)

// NewSession creates a disconnected session for the given server.
func NewSession(name string, cfg *ServerConfig) *Session {
	cfg.SetDefaults()
	return &Session{
		id:     uuid.New(),
		name:   name,
		config: cfg,
		status: ServerStatusDisconnected,
	}
}

func (s *Session) ID() uuid.UUID { return s.id }
func (s *Session) Name() string  { return s.name }

// Status returns the current connection status.
func (s *Session) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the error that put the session in the Error state.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Info returns the server identity announced at initialize.
func (s *Session) Info() ServerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Connect establishes the connection and performs the initialize handshake.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("[MCP] server %q: %w", s.name, err)
	}
	cli, err := s.createClient()
	if err != nil {
		s.setError(err)
		return fmt.Errorf("[MCP] server %q: failed to create client: %w", s.name, err)
	}
	if s.config.Transport != TransportStdio {
		if err := cli.Start(ctx); err != nil {
			_ = cli.Close()
			s.setError(err)
			return fmt.Errorf("[MCP] server %q: failed to start transport: %w", s.name, err)
		}
	}
	return s.ConnectClient(ctx, cli, s.config.Transport)
}

// ConnectClient initializes an already started client and adopts it.
func (s *Session) ConnectClient(ctx context.Context, cli *client.Client, transportName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = ServerStatusConnecting
	s.err = nil

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    ClientName,
		Version: version.GitVersion,
	}

	res, err := cli.Initialize(ctx, initReq)
	if err != nil {
		_ = cli.Close()
		s.status = ServerStatusError
		s.err = err
		return fmt.Errorf("[MCP] server %q: failed to initialize: %w", s.name, err)
	}

	if s.client != nil {
		_ = s.client.Close()
	}
	s.client = cli
	s.info = ServerInfo{
		Name:            res.ServerInfo.Name,
		Version:         res.ServerInfo.Version,
		ProtocolVersion: res.ProtocolVersion,
		Transport:       transportName,
	}
	s.status = ServerStatusConnected
	logger.Info("[MCP] server %q connected: %s %s over %s", s.name, s.info.Name, s.info.Version, transportName)
	return nil
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = ServerStatusError
	s.err = err
}

// Reconnect closes the current connection and establishes a new one.
func (s *Session) Reconnect(ctx context.Context) error {
	s.Close()
	return s.Connect(ctx)
}

// Close closes the current connection and releases resources.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Warn("[MCP] server %q: failed to close client: %v", s.name, err)
		}
		s.client = nil
	}
	s.info = ServerInfo{}
	s.status = ServerStatusDisconnected
	s.err = nil
}

// StatusJSON describes the session as a JSON object, the result of the
// mcp_connect() SQL function.
func (s *Session) StatusJSON() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.status != ServerStatusConnected {
		msg := "not connected"
		if s.err != nil {
			msg = s.err.Error()
		}
		return ErrorJSON(msg)
	}
	out, err := json.MarshalString(map[string]string{
		"status":    "connected",
		"server":    s.info.Name,
		"version":   s.info.Version,
		"transport": s.info.Transport,
	})
	if err != nil {
		return ErrorJSON(err.Error())
	}
	return out
}

// ErrorJSON renders msg as {"error": msg}.
func ErrorJSON(msg string) string {
	out, err := json.MarshalString(map[string]string{"error": msg})
	if err != nil {
		return `{"error":"internal error"}`
	}
	return out
}

// createClient creates a transport-specific MCP client.
func (s *Session) createClient() (*client.Client, error) {
	switch s.config.Transport {
	case TransportStdio:
		return client.NewStdioMCPClient(s.config.Command, s.config.Env, s.config.Args...)
	case TransportSSE:
		return client.NewSSEMCPClient(s.config.URL, transport.WithHeaders(s.config.Headers))
	case TransportStreamableHTTP:
		return client.NewStreamableHttpClient(s.config.URL, transport.WithHTTPHeaders(s.config.Headers))
	default:
		return nil, fmt.Errorf("unknown transport: %s", s.config.Transport)
	}
}

func (s *Session) connected() (*client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != ServerStatusConnected || s.client == nil {
		return nil, fmt.Errorf("[MCP] server %q: %w", s.name, vtab.ErrNotConnected)
	}
	return s.client, nil
}

// Ready reports whether the session can serve requests.
func (s *Session) Ready() error {
	_, err := s.connected()
	return err
}
