package mcptools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dusk-indust/voxflow/internal/desktop"
	"github.com/dusk-indust/voxflow/internal/provider"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// version is set by the linker at build time.
var version = "dev"

const (
	// DefaultServerName is the MCP server name advertised to providers.
	DefaultServerName = "voxflow"
	// DefaultInstructions is appended to the provider system prompt when
	// tools are attached.
	DefaultInstructions = "You can control the user's desktop through the voxflow tools. " +
		"Call a tool only when the dictated request asks for an action or needs the current selection or clipboard. " +
		"Reply with the final text only."

	endpointPath = "/mcp"
)

// NewAutomationMCPServer creates an MCP server with every automation tool
// registered. Group gating happens inside the handlers.
func NewAutomationMCPServer(svc *AutomationService, name, instructions string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, &mcp.ServerOptions{Instructions: instructions})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "openApplication",
		Description: "Launch or focus an application by bundle identifier. Use listApplications to discover identifiers.",
	}, svc.OpenApplication)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "openURL",
		Description: "Open an absolute URL (https, mailto, file, app schemes) with its default handler.",
	}, svc.OpenURL)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "listApplications",
		Description: "List installed applications with name, bundle identifier, path and running state. Optionally filter by a case-insensitive substring.",
	}, svc.ListApplications)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "getClipboardText",
		Description: "Return the current clipboard text and the list of representation types. Does not modify the clipboard.",
	}, svc.GetClipboardText)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "getSelectedText",
		Description: "Copy the selection in the frontmost application and return it. The clipboard is restored afterwards.",
	}, svc.GetSelectedText)

	return server
}

// ToolServer owns the loopback HTTP endpoint serving the automation tools.
// It starts on first use and keeps the same address until Shutdown.
type ToolServer struct {
	name         string
	host         string
	instructions string
	logger       *zap.Logger

	svc    *AutomationService
	server *mcp.Server

	mu         sync.Mutex
	httpServer *http.Server
	baseURL    string
	serveErr   chan error
}

var _ provider.ToolHost = (*ToolServer)(nil)

// Option configures a ToolServer.
type Option func(*ToolServer)

// WithName sets the advertised MCP server name.
func WithName(name string) Option {
	return func(s *ToolServer) {
		if name != "" {
			s.name = name
		}
	}
}

// WithHost sets the listen host. It should stay a loopback address.
func WithHost(host string) Option {
	return func(s *ToolServer) {
		if host != "" {
			s.host = host
		}
	}
}

// WithInstructions replaces DefaultInstructions.
func WithInstructions(text string) Option {
	return func(s *ToolServer) {
		if text != "" {
			s.instructions = text
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *ToolServer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewToolServer creates a ToolServer over the given desktop services. No
// socket is opened until EnsureServer is called.
func NewToolServer(d desktop.Desktop, opts ...Option) *ToolServer {
	s := &ToolServer{
		name:         DefaultServerName,
		host:         "127.0.0.1",
		instructions: DefaultInstructions,
		logger:       zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.svc = NewAutomationService(d, s.logger)
	s.server = NewAutomationMCPServer(s.svc, s.name, s.instructions)
	return s
}

// Service returns the tool handlers backing the server.
func (s *ToolServer) Service() *AutomationService { return s.svc }

// MCPServer returns the underlying MCP server.
func (s *ToolServer) MCPServer() *mcp.Server { return s.server }

// EnsureServer starts the endpoint if needed and narrows the allow-list to
// groups. Unknown groups are ignored.
func (s *ToolServer) EnsureServer(ctx context.Context, groups []provider.ToolGroup) (provider.ToolEndpoint, error) {
	if err := ctx.Err(); err != nil {
		return provider.ToolEndpoint{}, err
	}
	groups = normalizeGroups(groups)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Equal(groups, s.svc.Allowed()) {
		s.svc.SetAllowed(groups)
		s.logger.Debug("tool allow-list updated", zap.Any("groups", groups))
	}

	if s.httpServer == nil {
		if err := s.startLocked(); err != nil {
			return provider.ToolEndpoint{}, err
		}
	}

	return provider.ToolEndpoint{
		BaseURL:      s.baseURL,
		ServerName:   s.name,
		Instructions: s.instructions,
		ToolNames:    ToolNamesFor(groups),
	}, nil
}

func (s *ToolServer) startLocked() error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.host, "0"))
	if err != nil {
		return fmt.Errorf("tool server: listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(endpointPath, mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.server },
		nil,
	))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.httpServer = srv
	s.serveErr = errCh
	s.baseURL = "http://" + ln.Addr().String() + endpointPath
	s.logger.Info("tool server listening", zap.String("url", s.baseURL))
	return nil
}

// Endpoint returns the base URL, or "" when the server is not running.
func (s *ToolServer) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// Shutdown stops the endpoint. Open streams are closed forcibly once ctx
// expires. It is safe to call when the server never started.
func (s *ToolServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		err = s.httpServer.Close()
	}
	if serveErr := <-s.serveErr; serveErr != nil && err == nil {
		err = serveErr
	}
	s.httpServer = nil
	s.serveErr = nil
	s.baseURL = ""
	s.svc.SetAllowed(nil)
	return err
}

// Serve runs the endpoint with groups allowed until ctx is cancelled.
func (s *ToolServer) Serve(ctx context.Context, groups []provider.ToolGroup) (provider.ToolEndpoint, <-chan struct{}, error) {
	ep, err := s.EnsureServer(ctx, groups)
	if err != nil {
		return provider.ToolEndpoint{}, nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("tool server shutdown", zap.Error(err))
		}
	}()
	return ep, done, nil
}

// ServeStdio runs the tools over stdin/stdout with groups allowed, blocking
// until stdin is closed or ctx is cancelled. It does not open a socket.
func (s *ToolServer) ServeStdio(ctx context.Context, groups []provider.ToolGroup) error {
	return s.serveTransport(ctx, groups, &mcp.StdioTransport{})
}

func (s *ToolServer) serveTransport(ctx context.Context, groups []provider.ToolGroup, t mcp.Transport) error {
	s.mu.Lock()
	s.svc.SetAllowed(normalizeGroups(groups))
	s.mu.Unlock()
	return s.server.Run(ctx, t)
}
