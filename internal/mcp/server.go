// Package mcp exposes hemogram extraction and classification as Model Context
// Protocol tools, over stdio or streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/internal/service"
)

const referenceURIPrefix = "hemogram://reference/"

// Server represents the hemogram MCP server
type Server struct {
	config    domain.ConfigManager
	mcpServer *mcp.Server
	tools     *toolHandlers
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance
func NewServer(configManager domain.ConfigManager, svc *service.HemogramService, logger *logrus.Logger) (*Server, error) {
	cfg := configManager.GetConfig().MCP

	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	if serverInfo.Name == "" {
		serverInfo.Name = "hemogram-server"
	}

	server := &Server{
		config:    configManager,
		mcpServer: mcp.NewServer(serverInfo, nil),
		tools:     &toolHandlers{service: svc, logger: logger},
		logger:    logger,
	}

	if err := server.registerCapabilities(); err != nil {
		return nil, fmt.Errorf("failed to register capabilities: %w", err)
	}

	return server, nil
}

// MCPServer returns the underlying SDK server
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// Start runs the server on the configured transport until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.GetConfig().MCP
	transport := strings.ToLower(cfg.TransportType)
	s.logger.WithField("transport_type", transport).Info("Starting hemogram MCP server")

	switch transport {
	case "", "stdio":
		if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP server failed: %w", err)
		}
		return nil
	case "http":
		return s.serveHTTP(ctx, fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort))
	default:
		return fmt.Errorf("unsupported MCP transport: %s", cfg.TransportType)
	}
}

func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.WithField("addr", addr).Info("MCP streamable HTTP transport listening")

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("MCP HTTP transport: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// registerCapabilities registers all MCP tools, resources and prompts
func (s *Server) registerCapabilities() error {
	mcp.AddTool(s.mcpServer, MetadataExtractHemogramText, s.tools.ExtractHemogramText)
	mcp.AddTool(s.mcpServer, MetadataExtractHemogramRows, s.tools.ExtractHemogramRows)
	mcp.AddTool(s.mcpServer, MetadataClassifyHemogram, s.tools.ClassifyHemogram)
	mcp.AddTool(s.mcpServer, MetadataGetReferenceValues, s.tools.GetReferenceValues)

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "reference_table",
		Description: "Reference ranges used to classify hemogram values, e.g. hemogram://reference/Gato",
		URITemplate: referenceURIPrefix + "{species}",
		MIMEType:    "application/json",
	}, s.readReferenceTable)

	s.mcpServer.AddPrompt(PromptInterpretHemogram, s.interpretHemogramPrompt)

	s.logger.Debug("Registered MCP tools, resources and prompts")
	return nil
}

func (s *Server) readReferenceTable(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	species, err := url.PathUnescape(strings.TrimPrefix(uri, referenceURIPrefix))
	if err != nil || species == "" || !strings.HasPrefix(uri, referenceURIPrefix) {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	_, out, err := s.tools.GetReferenceValues(ctx, nil, GetReferenceValuesInput{Species: species})
	if err != nil {
		return nil, err
	}
	text, err := marshalJSON(out)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}, nil
}
