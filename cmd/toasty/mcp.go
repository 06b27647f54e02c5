package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/vinodismyname/toasty/internal/registry"
	"github.com/vinodismyname/toasty/internal/runtime"
	"github.com/vinodismyname/toasty/pkg/version"
)

func newMCPServer(a *app) (*server.MCPServer, *registry.Registry) {
	mw := runtime.NewMiddleware(a.ctrl)
	filter := registry.NewProtocolToolFilter(a.cfg.MCP.ExposeProtocolTools)

	srv := server.NewMCPServer(
		"Toasty Calculator",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(a.hooks.MCP()),
		server.WithToolHandlerMiddleware(mw.ToolMiddleware),
		server.WithToolFilter(filter.FilterTools),
	)

	reg := registry.New()
	registry.RegisterCalculatorTools(srv, reg, registry.NewTools(a.prov, a.ctrl.LimitsSnapshot()))
	return srv, reg
}

func newMCPCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the calculator tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			srv, reg := newMCPServer(a)

			a.logger.Info().
				Str("version", version.Version()).
				Strs("tools", reg.Names()).
				Bool("protocol_tools_listed", a.cfg.MCP.ExposeProtocolTools).
				Msg("server bootstrap configured")

			// Logs go to stderr so they never interleave with the stdio transport.
			a.hooks.OnServerStart("mcp", "stdio")
			err := server.ServeStdio(srv)
			a.hooks.OnServerStop("mcp", err)
			return err
		},
	}
}
