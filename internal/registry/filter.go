package registry

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ProtocolToolFilter hides the search provider protocol tools from discovery
// unless explicitly enabled. Hidden tools remain callable.
type ProtocolToolFilter struct {
	expose bool
}

// NewProtocolToolFilter constructs a filter; expose mirrors
// mcp.expose_protocol_tools in the configuration.
func NewProtocolToolFilter(expose bool) *ProtocolToolFilter {
	return &ProtocolToolFilter{expose: expose}
}

// FilterTools implements server tool filtering semantics.
func (f *ProtocolToolFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if f.expose {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if IsProtocolTool(t.Name) {
			continue
		}
		out = append(out, t)
	}
	return out
}
