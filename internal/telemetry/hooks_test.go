package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newBufferedHooks() (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	return NewHooks(logger), &buf
}

func TestHooks_Lifecycle(t *testing.T) {
	h, buf := newBufferedHooks()

	h.OnServerStart("dbus", "rodolf0.toasty.SearchProvider")
	h.OnServerStop("dbus", nil)
	out := buf.String()
	require.Contains(t, out, `"transport":"dbus"`)
	require.Contains(t, out, `"message":"server starting"`)
	require.Contains(t, out, `"message":"server stopping"`)

	buf.Reset()
	h.OnServerStop("mcp", errors.New("pipe closed"))
	require.Contains(t, buf.String(), `"level":"error"`)
	require.Contains(t, buf.String(), "pipe closed")
}

func TestHooks_Track(t *testing.T) {
	h, buf := newBufferedHooks()

	done := h.Track("GetResultMetas")
	done(nil)
	require.Contains(t, buf.String(), `"method":"GetResultMetas"`)
	require.Contains(t, buf.String(), `"message":"call completed"`)

	buf.Reset()
	h.Track("GetResultMetas")(errors.New("invalid argument"))
	require.Contains(t, buf.String(), `"level":"warn"`)
	require.Contains(t, buf.String(), `"message":"call failed"`)
}

func TestHooks_MCP(t *testing.T) {
	h, buf := newBufferedHooks()
	hooks := h.MCP()

	require.Len(t, hooks.OnAfterCallTool, 1)
	req := &mcp.CallToolRequest{}
	req.Params.Name = "evaluate_expression"
	hooks.OnAfterCallTool[0](context.Background(), 1, req, mcp.NewToolResultError("DIVISION_BY_ZERO: x"))
	require.Contains(t, buf.String(), `"tool":"evaluate_expression"`)
	require.Contains(t, buf.String(), `"level":"warn"`)
}
