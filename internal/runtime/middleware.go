package runtime

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vinodismyname/toasty/pkg/mcperr"
)

// Middleware enforces runtime limits for tool calls using the Controller.
// It bounds global concurrency and applies an operation timeout to each call.
type Middleware struct {
	ctrl *Controller
}

// NewMiddleware constructs a Middleware bound to the provided Controller.
func NewMiddleware(ctrl *Controller) *Middleware {
	return &Middleware{ctrl: ctrl}
}

// ToolMiddleware implements mcp-go's tool handler middleware interface.
// It acquires a request slot, applies a timeout, and guarantees release.
func (m *Middleware) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var (
			res     *mcp.CallToolResult
			err     error
			expired bool
		)
		runErr := m.ctrl.Run(ctx, func(callCtx context.Context) error {
			res, err = next(callCtx, req)
			expired = callCtx.Err() == context.DeadlineExceeded
			return nil
		})
		if runErr == ErrBusy {
			// Return a tool-level error so the client can retry.
			return mcperr.New(mcperr.BusyResource, fmt.Sprintf("concurrent request limit reached (max=%d)", m.ctrl.limits.MaxConcurrentRequests)), nil
		}

		// If the handler surfaced a context deadline, prefer a tool-level timeout error.
		if err == context.DeadlineExceeded || (expired && err == nil && res == nil) {
			return mcperr.New(mcperr.Timeout, ""), nil
		}
		return res, err
	}
}
