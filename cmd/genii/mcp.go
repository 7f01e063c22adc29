package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pygenii/genii/internal/cache"
	"github.com/pygenii/genii/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes genii's complexity
analysis as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "genii": {
        "command": "genii",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_complexity   Critical functions plus optional complexity tables
  - critical_functions   Functions and methods above the threshold`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP server manifest (server.json)",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	opts := []mcpserver.Option{
		mcpserver.WithConfig(cfg),
		mcpserver.WithLogger(loggerFrom(c)),
	}
	if cfg.Cache.Enabled {
		rc, err := cache.FromConfig(cfg.Cache)
		if err != nil {
			return err
		}
		opts = append(opts, mcpserver.WithCache(rc))
	}

	return mcpserver.NewServer(version, opts...).Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
