// Package server wires the crawl tools onto an MCP server and runs it on
// the selected transport.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/crawlspace/crawlspace/internal/config"
	"github.com/crawlspace/crawlspace/internal/tools"
)

// Version is reported to MCP clients during initialisation.
const Version = "1.0.0"

// Transport selects how the MCP server talks to its client.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

// New builds the MCP server with the crawl tools registered.
func New(engine tools.Engine, settings config.Settings) *server.MCPServer {
	s := server.NewMCPServer(
		"crawlspace",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	tools.NewHandler(engine, settings).Register(s)
	return s
}

// Serve runs the MCP server on the chosen transport, blocking until the
// client disconnects or the server fails.
func Serve(s *server.MCPServer, transport Transport, addr string) error {
	switch transport {
	case TransportStdio:
		log.Info().Msg("Serving MCP over stdio")
		return server.ServeStdio(s)
	case TransportHTTP:
		log.Info().Str("addr", addr).Msg("Serving MCP over streamable HTTP")
		return server.NewStreamableHTTPServer(s).Start(addr)
	default:
		return fmt.Errorf("unknown transport: %q, accepted values: stdio, http", transport)
	}
}
