package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"parkfinder/pkg/mcp"
)

// runMcpServer handles the mcp-server subcommand
func runMcpServer(args []string) {
	fs := flag.NewFlagSet("mcp-server", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigPath, "Path to config file")
	transport := fs.String("transport", "stdio", "Transport type (stdio, sse)")
	port := fs.Int("port", 8080, "HTTP port (for sse transport)")
	logLevel := fs.String("loglevel", defaultLogLevel, "Log level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: parkfinder mcp-server [options]

Start an MCP (Model Context Protocol) server for AI tool integration.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Start with stdio transport
  parkfinder mcp-server -config config.yaml

  # Start with SSE transport on port 8080
  parkfinder mcp-server -config config.yaml -transport sse -port 8080

Available MCP Tools:
  list_regions   List every state/region with its listing URL
  list_sites     List the national sites of a region
  nearby_places  Find places near a site or postal code
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doMcpServer(*configFile, *transport, *port, *logLevel, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doMcpServer is the testable implementation of the MCP server
func doMcpServer(configPath, transport string, port int, logLevel string, stdout, stderr io.Writer) int {
	// MCP protocol uses stdout, logs go to stderr
	if _, err := logrus.ParseLevel(logLevel); err != nil {
		fmt.Fprintf(stderr, "Invalid log level: %s\n", logLevel)
		return 1
	}
	if transport != "stdio" && transport != "sse" {
		fmt.Fprintf(stderr, "Unknown transport: %s (supported: stdio, sse)\n", transport)
		return 1
	}

	a, err := newApp(configPath, logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	defer a.close()
	a.startGC()

	serverCfg := &mcp.ServerConfig{
		ConfigPath: configPath,
		Transport:  transport,
		Port:       port,
		Logger:     a.log,
	}

	server, err := mcp.NewServer(serverCfg, a.indexer, a.nearby)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}

	a.log.Infof("Starting MCP server (transport: %s)", transport)

	if err := server.Run(); err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}

	return 0
}
