package telemetry

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Hooks logs server lifecycle and per-call outcomes for both the D-Bus and
// MCP surfaces.
type Hooks struct {
	logger zerolog.Logger
}

// NewHooks constructs a Hooks instance with the provided logger.
func NewHooks(logger zerolog.Logger) *Hooks {
	return &Hooks{logger: logger.With().Str("component", "telemetry").Logger()}
}

// OnServerStart is called when a surface begins accepting calls.
func (h *Hooks) OnServerStart(transport, address string) {
	h.logger.Info().Str("transport", transport).Str("address", address).Msg("server starting")
}

// OnServerStop is called during shutdown.
func (h *Hooks) OnServerStop(transport string, err error) {
	if err != nil {
		h.logger.Error().Str("transport", transport).Err(err).Msg("server stopped with error")
		return
	}
	h.logger.Info().Str("transport", transport).Msg("server stopping")
}

// OnCall logs a protocol method invocation and its outcome.
func (h *Hooks) OnCall(method string, duration time.Duration, err error) {
	if err != nil {
		h.logger.Warn().Str("method", method).Dur("duration", duration).Err(err).Msg("call failed")
		return
	}
	h.logger.Debug().Str("method", method).Dur("duration", duration).Msg("call completed")
}

// Track returns a func that reports the call to OnCall when invoked with
// the call's error.
func (h *Hooks) Track(method string) func(error) {
	start := time.Now()
	return func(err error) {
		h.OnCall(method, time.Since(start), err)
	}
}

// MCP builds mcp-go server hooks that log sessions, tool listing and calls.
func (h *Hooks) MCP() *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		h.logger.Info().Str("session_id", session.SessionID()).Msg("session registered")
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		h.logger.Info().Str("session_id", session.SessionID()).Msg("session unregistered")
	})

	hooks.AddAfterListTools(func(ctx context.Context, id any, req *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		h.logger.Debug().Int("tools", len(res.Tools)).Msg("list_tools served")
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, res *mcp.CallToolResult) {
		evt := h.logger.Debug()
		if res != nil && res.IsError {
			evt = h.logger.Warn()
		}
		evt.Str("tool", req.Params.Name).Msg("tool call served")
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		h.logger.Error().Str("method", string(method)).Err(err).Msg("request error")
	})

	return hooks
}
