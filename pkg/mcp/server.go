package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"parkfinder/pkg/models"
)

const (
	serverName    = "parkfinder"
	serverVersion = "0.4.0"
)

// SiteLister provides the region index and per-region listings
type SiteLister interface {
	BuildRegionIndex(ctx context.Context) (models.RegionIndex, error)
	ListSites(ctx context.Context, regionURL string) ([]models.Site, error)
}

// NearbyFinder returns places near a site
type NearbyFinder interface {
	Nearby(ctx context.Context, site models.Site) ([]models.NearbyPlace, error)
}

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	ConfigPath string
	Transport  string // "stdio" or "sse"
	Port       int
	Logger     *logrus.Logger
}

// Server exposes region, site and nearby-place lookups as MCP tools
type Server struct {
	mcpServer *server.MCPServer
	cfg       *ServerConfig
	lister    SiteLister
	nearby    NearbyFinder
	log       *logrus.Entry
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig, lister SiteLister, nearby NearbyFinder) (*Server, error) {
	if lister == nil || nearby == nil {
		return nil, fmt.Errorf("site lister and nearby finder are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		cfg:       cfg,
		lister:    lister,
		nearby:    nearby,
		log:       cfg.Logger.WithField("component", "mcp"),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	listRegionsTool := mcp.NewTool("list_regions",
		mcp.WithDescription("List every state/region with its National Park Service listing URL"),
	)
	s.mcpServer.AddTool(listRegionsTool, s.handleListRegions)

	listSitesTool := mcp.NewTool("list_sites",
		mcp.WithDescription("List the national sites of a state, in listing order, numbered from 1"),
		mcp.WithString("region",
			mcp.Required(),
			mcp.Description("State name, case-insensitive (e.g. 'Michigan')"),
		),
	)
	s.mcpServer.AddTool(listSitesTool, s.handleListSites)

	nearbyTool := mcp.NewTool("nearby_places",
		mcp.WithDescription("Find places within the configured radius of a national site. Give either region and site, or postal_code."),
		mcp.WithString("region",
			mcp.Description("State name, case-insensitive"),
		),
		mcp.WithNumber("site",
			mcp.Description("1-based site number from list_sites"),
		),
		mcp.WithString("postal_code",
			mcp.Description("Search around this postal code directly"),
		),
	)
	s.mcpServer.AddTool(nearbyTool, s.handleNearbyPlaces)

	s.log.Infof("Registered %d MCP tools", 3)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio", "":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}
