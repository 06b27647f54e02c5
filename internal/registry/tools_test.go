package registry

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/toasty/config"
	"github.com/vinodismyname/toasty/internal/provider"
	"github.com/vinodismyname/toasty/internal/runtime"
	"github.com/vinodismyname/toasty/internal/session"
)

func newTestTools(t *testing.T, opts ...provider.Option) (*Tools, *session.Registry) {
	t.Helper()
	limits := runtime.NewLimits(4, 2)
	limits.MaxExpressionBytes = 64
	limits.MaxResultIDs = 3
	reg := session.NewRegistry(0)
	prov := provider.New(reg, runtime.NewController(limits), opts...)
	return NewTools(prov, limits), reg
}

func errorText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.True(t, res.IsError)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestEvaluateExpression(t *testing.T) {
	tools, reg := newTestTools(t)

	res, err := tools.EvaluateExpression(context.Background(), mcp.CallToolRequest{}, EvaluateExpressionInput{Expression: "2 ^ 3 ^ 2"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	out, ok := res.StructuredContent.(EvaluateExpressionOutput)
	require.True(t, ok)
	require.Equal(t, 512.0, out.Value)
	require.Equal(t, "512", out.Display)
	require.Equal(t, "2 ^ 3 ^ 2 = 512", res.Content[0].(mcp.TextContent).Text)
	require.Equal(t, 0, reg.Len())
}

func TestEvaluateExpression_Errors(t *testing.T) {
	tools, _ := newTestTools(t)

	cases := map[string]string{
		"":                      "VALIDATION:",
		"   ":                   "VALIDATION:",
		"1 / 0":                 "DIVISION_BY_ZERO:",
		"nope(1)":               "UNKNOWN_SYMBOL:",
		"sqrt(-4)":              "DOMAIN_ERROR:",
		"2 +":                   "INVALID_EXPRESSION:",
		strings.Repeat("1", 65): "PAYLOAD_TOO_LARGE:",
	}
	for in, prefix := range cases {
		res, err := tools.EvaluateExpression(context.Background(), mcp.CallToolRequest{}, EvaluateExpressionInput{Expression: in})
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(errorText(t, res), prefix), "%q: %s", in, errorText(t, res))
	}
}

func TestGetInitialResultSet(t *testing.T) {
	tools, reg := newTestTools(t)

	res, err := tools.GetInitialResultSet(context.Background(), mcp.CallToolRequest{}, ResultSetInput{Terms: []string{"1", "+", "2"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, ResultSetOutput{Results: []string{"1 + 2"}}, res.StructuredContent)
	require.True(t, reg.IsKnown("1 + 2"))

	res, err = tools.GetInitialResultSet(context.Background(), mcp.CallToolRequest{}, ResultSetInput{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errorText(t, res), "VALIDATION: terms is required"))
}

func TestGetSubsearchResultSet(t *testing.T) {
	tools, _ := newTestTools(t)

	res, err := tools.GetSubsearchResultSet(context.Background(), mcp.CallToolRequest{}, SubsearchResultSetInput{
		PreviousResults: []string{"1 +"},
		Terms:           []string{"1", "+", "5"},
	})
	require.NoError(t, err)
	require.Equal(t, ResultSetOutput{Results: []string{"1 + 5"}}, res.StructuredContent)
}

func TestGetResultMetas(t *testing.T) {
	tools, _ := newTestTools(t)

	res, err := tools.GetResultMetas(context.Background(), mcp.CallToolRequest{}, ResultMetasInput{Identifiers: []string{"2 * 21", "3!"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	out, ok := res.StructuredContent.(ResultMetasOutput)
	require.True(t, ok)
	require.Equal(t, []provider.Meta{
		{ID: "2 * 21", Name: "42", Description: "2 * 21"},
		{ID: "3!", Name: "6", Description: "3!"},
	}, out.Metas)

	res, err = tools.GetResultMetas(context.Background(), mcp.CallToolRequest{}, ResultMetasInput{Identifiers: []string{"1", "1 / 0"}})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errorText(t, res), "DIVISION_BY_ZERO:"))

	res, err = tools.GetResultMetas(context.Background(), mcp.CallToolRequest{}, ResultMetasInput{Identifiers: []string{"1", "2", "3", "4"}})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errorText(t, res), "LIMIT_EXCEEDED:"))
}

func TestGetResultMetas_Partial(t *testing.T) {
	tools, _ := newTestTools(t, provider.WithMetasPolicy(config.MetasPartial))

	res, err := tools.GetResultMetas(context.Background(), mcp.CallToolRequest{}, ResultMetasInput{Identifiers: []string{"1 / 0", "4 - 1"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	out := res.StructuredContent.(ResultMetasOutput)
	require.Equal(t, "1 / 0", out.Metas[0].Name)
	require.Contains(t, out.Metas[0].Description, "division by zero")
	require.Equal(t, "3", out.Metas[1].Name)
}

func TestActivateAndLaunch(t *testing.T) {
	tools, _ := newTestTools(t)

	res, err := tools.ActivateResult(context.Background(), mcp.CallToolRequest{}, ActivateResultInput{Identifier: "1 + 1", Timestamp: 3})
	require.NoError(t, err)
	require.Equal(t, AckOutput{Acknowledged: true}, res.StructuredContent)

	res, err = tools.ActivateResult(context.Background(), mcp.CallToolRequest{}, ActivateResultInput{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errorText(t, res), "VALIDATION: identifier is required"))

	res, err = tools.LaunchSearch(context.Background(), mcp.CallToolRequest{}, LaunchSearchInput{})
	require.NoError(t, err)
	require.Equal(t, AckOutput{Acknowledged: true}, res.StructuredContent)
}

func TestRegisterCalculatorTools_ListFiltersProtocolTools(t *testing.T) {
	for _, expose := range []bool{false, true} {
		tools, _ := newTestTools(t)
		reg := New()
		filter := NewProtocolToolFilter(expose)
		srv := server.NewMCPServer("toasty-test", "test",
			server.WithToolCapabilities(true),
			server.WithToolFilter(filter.FilterTools),
		)
		RegisterCalculatorTools(srv, reg, tools)
		require.Len(t, reg.Names(), 6)

		msg := srv.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
		resp, ok := msg.(mcp.JSONRPCResponse)
		require.True(t, ok, "%T", msg)
		list, ok := resp.Result.(mcp.ListToolsResult)
		require.True(t, ok, "%T", resp.Result)

		names := make([]string, 0, len(list.Tools))
		for _, tool := range list.Tools {
			names = append(names, tool.Name)
		}
		if expose {
			require.Len(t, names, 6)
		} else {
			require.Equal(t, []string{ToolEvaluateExpression}, names)
		}
	}
}

func TestRegisterCalculatorTools_HiddenToolsCallable(t *testing.T) {
	tools, reg := newTestTools(t)
	srv := server.NewMCPServer("toasty-test", "test",
		server.WithToolCapabilities(true),
		server.WithToolFilter(NewProtocolToolFilter(false).FilterTools),
	)
	RegisterCalculatorTools(srv, New(), tools)

	msg := srv.HandleMessage(context.Background(), json.RawMessage(
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_initial_result_set","arguments":{"terms":["6","/","3"]}}}`))
	_, ok := msg.(mcp.JSONRPCResponse)
	require.True(t, ok, "%T", msg)
	require.True(t, reg.IsKnown("6 / 3"))
}
