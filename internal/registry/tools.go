package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vinodismyname/toasty/internal/provider"
	"github.com/vinodismyname/toasty/internal/runtime"
	"github.com/vinodismyname/toasty/pkg/calc"
	"github.com/vinodismyname/toasty/pkg/mcperr"
	"github.com/vinodismyname/toasty/pkg/validation"
)

// Tool names.
const (
	ToolEvaluateExpression    = "evaluate_expression"
	ToolGetInitialResultSet   = "get_initial_result_set"
	ToolGetSubsearchResultSet = "get_subsearch_result_set"
	ToolGetResultMetas        = "get_result_metas"
	ToolActivateResult        = "activate_result"
	ToolLaunchSearch          = "launch_search"
)

var protocolTools = map[string]bool{
	ToolGetInitialResultSet:   true,
	ToolGetSubsearchResultSet: true,
	ToolGetResultMetas:        true,
	ToolActivateResult:        true,
	ToolLaunchSearch:          true,
}

// IsProtocolTool reports whether name is one of the search provider
// protocol tools.
func IsProtocolTool(name string) bool {
	return protocolTools[strings.ToLower(name)]
}

// --- Input / Output Schemas (typed for discovery) ---

// EvaluateExpressionInput defines parameters for evaluate_expression.
type EvaluateExpressionInput struct {
	Expression string `json:"expression" validate:"required,expression" jsonschema_description:"Arithmetic expression, e.g. 2 * (3 + 4) or sqrt(16)"`
}

// EvaluateExpressionOutput documents the evaluate_expression response.
type EvaluateExpressionOutput struct {
	Expression string  `json:"expression" jsonschema_description:"The expression as received"`
	Value      float64 `json:"value" jsonschema_description:"Numeric result"`
	Display    string  `json:"display" jsonschema_description:"Result formatted for display"`
}

// ResultSetInput defines parameters for get_initial_result_set.
type ResultSetInput struct {
	Terms []string `json:"terms" validate:"required" jsonschema_description:"Search terms; joined with single spaces into one expression"`
}

// SubsearchResultSetInput defines parameters for get_subsearch_result_set.
type SubsearchResultSetInput struct {
	PreviousResults []string `json:"previous_results,omitempty" jsonschema_description:"Result ids from the previous search; ignored"`
	Terms           []string `json:"terms" validate:"required" jsonschema_description:"Refined search terms"`
}

// ResultSetOutput lists result ids.
type ResultSetOutput struct {
	Results []string `json:"results" jsonschema_description:"Result ids; always exactly one"`
}

// ResultMetasInput defines parameters for get_result_metas.
type ResultMetasInput struct {
	Identifiers []string `json:"identifiers" validate:"required" jsonschema_description:"Result ids to describe"`
}

// ResultMetasOutput carries one record per requested id, in order.
type ResultMetasOutput struct {
	Metas []provider.Meta `json:"metas"`
}

// ActivateResultInput defines parameters for activate_result.
type ActivateResultInput struct {
	Identifier string   `json:"identifier" validate:"required" jsonschema_description:"Result id the user picked"`
	Terms      []string `json:"terms,omitempty" jsonschema_description:"Search terms at activation time"`
	Timestamp  uint32   `json:"timestamp,omitempty" jsonschema_description:"Event timestamp"`
}

// LaunchSearchInput defines parameters for launch_search.
type LaunchSearchInput struct {
	Terms     []string `json:"terms,omitempty" jsonschema_description:"Search terms"`
	Timestamp uint32   `json:"timestamp,omitempty" jsonschema_description:"Event timestamp"`
}

// AckOutput acknowledges an operation without a payload.
type AckOutput struct {
	Acknowledged bool `json:"acknowledged"`
}

// Tools holds the handlers for the calculator tools.
type Tools struct {
	prov   *provider.Provider
	limits runtime.Limits
}

// NewTools binds tool handlers to a provider.
func NewTools(prov *provider.Provider, limits runtime.Limits) *Tools {
	return &Tools{prov: prov, limits: limits}
}

// RegisterCalculatorTools defines the calculator tool schemas and handlers.
func RegisterCalculatorTools(s *server.MCPServer, reg *Registry, t *Tools) {
	evalTool := mcp.NewTool(
		ToolEvaluateExpression,
		mcp.WithDescription("Evaluate an arithmetic expression. Supports + - * / % ^, postfix ! (factorial), parentheses, unary minus, constants pi e tau phi, and functions such as sqrt, ln, log, sin, min, max. Errors include INVALID_EXPRESSION, UNKNOWN_SYMBOL, DIVISION_BY_ZERO, ARITY_MISMATCH, NUMERIC_OVERFLOW and DOMAIN_ERROR."),
		mcp.WithInputSchema[EvaluateExpressionInput](),
		mcp.WithOutputSchema[EvaluateExpressionOutput](),
	)
	s.AddTool(evalTool, mcp.NewTypedToolHandler(t.EvaluateExpression))
	reg.Register(evalTool)

	initial := mcp.NewTool(
		ToolGetInitialResultSet,
		mcp.WithDescription("Search provider protocol: join terms into an expression, record it and return it as the single result id."),
		mcp.WithInputSchema[ResultSetInput](),
		mcp.WithOutputSchema[ResultSetOutput](),
	)
	s.AddTool(initial, mcp.NewTypedToolHandler(t.GetInitialResultSet))
	reg.Register(initial)

	sub := mcp.NewTool(
		ToolGetSubsearchResultSet,
		mcp.WithDescription("Search provider protocol: same as get_initial_result_set; previous results are ignored."),
		mcp.WithInputSchema[SubsearchResultSetInput](),
		mcp.WithOutputSchema[ResultSetOutput](),
	)
	s.AddTool(sub, mcp.NewTypedToolHandler(t.GetSubsearchResultSet))
	reg.Register(sub)

	metas := mcp.NewTool(
		ToolGetResultMetas,
		mcp.WithDescription("Search provider protocol: evaluate each result id and return {id, name, description} records in request order."),
		mcp.WithInputSchema[ResultMetasInput](),
		mcp.WithOutputSchema[ResultMetasOutput](),
	)
	s.AddTool(metas, mcp.NewTypedToolHandler(t.GetResultMetas))
	reg.Register(metas)

	activate := mcp.NewTool(
		ToolActivateResult,
		mcp.WithDescription("Search provider protocol: acknowledge that a result was activated. No side effects."),
		mcp.WithInputSchema[ActivateResultInput](),
		mcp.WithOutputSchema[AckOutput](),
	)
	s.AddTool(activate, mcp.NewTypedToolHandler(t.ActivateResult))
	reg.Register(activate)

	launch := mcp.NewTool(
		ToolLaunchSearch,
		mcp.WithDescription("Search provider protocol: acknowledge a request to launch the full search. No side effects."),
		mcp.WithInputSchema[LaunchSearchInput](),
		mcp.WithOutputSchema[AckOutput](),
	)
	s.AddTool(launch, mcp.NewTypedToolHandler(t.LaunchSearch))
	reg.Register(launch)
}

// EvaluateExpression handles evaluate_expression.
func (t *Tools) EvaluateExpression(ctx context.Context, req mcp.CallToolRequest, in EvaluateExpressionInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	v, err := t.prov.Evaluate(ctx, in.Expression)
	if err != nil {
		return t.toolError(err), nil
	}
	out := EvaluateExpressionOutput{Expression: in.Expression, Value: v, Display: calc.Format(v)}
	return mcp.NewToolResultStructured(out, fmt.Sprintf("%s = %s", in.Expression, out.Display)), nil
}

// GetInitialResultSet handles get_initial_result_set.
func (t *Tools) GetInitialResultSet(ctx context.Context, req mcp.CallToolRequest, in ResultSetInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	ids, err := t.prov.InitialResultSet(ctx, in.Terms)
	if err != nil {
		return t.toolError(err), nil
	}
	return resultSet(ids), nil
}

// GetSubsearchResultSet handles get_subsearch_result_set.
func (t *Tools) GetSubsearchResultSet(ctx context.Context, req mcp.CallToolRequest, in SubsearchResultSetInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	ids, err := t.prov.SubsearchResultSet(ctx, in.PreviousResults, in.Terms)
	if err != nil {
		return t.toolError(err), nil
	}
	return resultSet(ids), nil
}

func resultSet(ids []string) *mcp.CallToolResult {
	return mcp.NewToolResultStructured(ResultSetOutput{Results: ids}, strings.Join(ids, "\n"))
}

// GetResultMetas handles get_result_metas.
func (t *Tools) GetResultMetas(ctx context.Context, req mcp.CallToolRequest, in ResultMetasInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	metas, err := t.prov.ResultMetas(ctx, in.Identifiers)
	if err != nil {
		return t.toolError(err), nil
	}
	lines := make([]string, len(metas))
	for i, m := range metas {
		lines[i] = fmt.Sprintf("%s = %s", m.Description, m.Name)
	}
	return mcp.NewToolResultStructured(ResultMetasOutput{Metas: metas}, strings.Join(lines, "\n")), nil
}

// ActivateResult handles activate_result.
func (t *Tools) ActivateResult(ctx context.Context, req mcp.CallToolRequest, in ActivateResultInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	if err := t.prov.ActivateResult(ctx, in.Identifier, in.Terms, in.Timestamp); err != nil {
		return t.toolError(err), nil
	}
	return mcp.NewToolResultStructured(AckOutput{Acknowledged: true}, "activated"), nil
}

// LaunchSearch handles launch_search.
func (t *Tools) LaunchSearch(ctx context.Context, req mcp.CallToolRequest, in LaunchSearchInput) (*mcp.CallToolResult, error) {
	if err := t.prov.LaunchSearch(ctx, in.Terms, in.Timestamp); err != nil {
		return t.toolError(err), nil
	}
	return mcp.NewToolResultStructured(AckOutput{Acknowledged: true}, "launched"), nil
}

// toolError maps provider and calc failures onto catalog codes.
func (t *Tools) toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, provider.ErrExpressionTooLarge):
		return mcperr.Wrapf(mcperr.PayloadTooLarge, "expression exceeds max_expression_bytes=%d", t.limits.MaxExpressionBytes)
	case errors.Is(err, provider.ErrTooManyIDs):
		return mcperr.Wrapf(mcperr.LimitExceeded, "more than max_result_ids=%d ids", t.limits.MaxResultIDs)
	case errors.Is(err, context.DeadlineExceeded):
		return mcperr.New(mcperr.Timeout, "")
	case errors.Is(err, context.Canceled):
		return mcperr.New(mcperr.Timeout, "request canceled")
	}
	return mcperr.FromError(err)
}
