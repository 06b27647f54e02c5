package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vinodismyname/toasty/config"
	"github.com/vinodismyname/toasty/internal/runtime"
	"github.com/vinodismyname/toasty/internal/session"
	"github.com/vinodismyname/toasty/pkg/calc"
)

// ErrInvalidArgument is matched by every error caused by the caller's input.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	// ErrExpressionTooLarge is returned for expressions over the configured size.
	ErrExpressionTooLarge = errors.New("expression exceeds size limit")
	// ErrTooManyIDs is returned when a metadata request carries too many ids.
	ErrTooManyIDs = errors.New("too many result ids")
)

// InvalidArgumentError reports the id that could not be served. Index is its
// position in the request, or -1 when the request as a whole was rejected.
type InvalidArgumentError struct {
	ID    string
	Index int
	Err   error
}

func (e *InvalidArgumentError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid argument: %v", e.Err)
	}
	return fmt.Sprintf("invalid argument: id %q: %v", e.ID, e.Err)
}

// Unwrap exposes both ErrInvalidArgument and the underlying cause.
func (e *InvalidArgumentError) Unwrap() []error {
	return []error{ErrInvalidArgument, e.Err}
}

// Meta is the display record for one result id.
type Meta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Provider serves the search provider operations over the calc pipeline.
// Calls are independent; the session registry is the only shared state.
type Provider struct {
	sessions *session.Registry
	ctrl     *runtime.Controller
	calc     *calc.Context
	policy   string
	logger   zerolog.Logger
}

// Option customizes a Provider.
type Option func(*Provider)

// WithCalcContext evaluates expressions against c instead of calc.Default().
func WithCalcContext(c *calc.Context) Option {
	return func(p *Provider) { p.calc = c }
}

// WithMetasPolicy selects config.MetasAllOrNothing or config.MetasPartial.
func WithMetasPolicy(policy string) Option {
	return func(p *Provider) { p.policy = policy }
}

// WithLogger sets the base logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// New constructs a Provider around a registry owned by the caller.
func New(sessions *session.Registry, ctrl *runtime.Controller, opts ...Option) *Provider {
	p := &Provider{
		sessions: sessions,
		ctrl:     ctrl,
		calc:     calc.Default(),
		policy:   config.MetasAllOrNothing,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "provider").Logger()
	return p
}

// JoinTerms forms the expression for a set of search terms.
func JoinTerms(terms []string) string {
	return strings.Join(terms, " ")
}

func (p *Provider) requestLogger(method string) zerolog.Logger {
	return p.logger.With().Str("method", method).Str("request_id", uuid.NewString()).Logger()
}

func (p *Provider) checkSize(expr string) error {
	if limit := p.ctrl.LimitsSnapshot().MaxExpressionBytes; limit > 0 && len(expr) > limit {
		return ErrExpressionTooLarge
	}
	return nil
}

// InitialResultSet joins terms into one expression, records it and returns
// it as the single result id.
func (p *Provider) InitialResultSet(ctx context.Context, terms []string) ([]string, error) {
	log := p.requestLogger("GetInitialResultSet")
	return p.resultSet(log, terms)
}

// SubsearchResultSet behaves as InitialResultSet. Previous ids are accepted
// and logged but do not narrow the result.
func (p *Provider) SubsearchResultSet(ctx context.Context, previous, terms []string) ([]string, error) {
	log := p.requestLogger("GetSubsearchResultSet")
	log = log.With().Int("previous", len(previous)).Logger()
	return p.resultSet(log, terms)
}

func (p *Provider) resultSet(log zerolog.Logger, terms []string) ([]string, error) {
	expr := JoinTerms(terms)
	if err := p.checkSize(expr); err != nil {
		log.Warn().Int("bytes", len(expr)).Msg("expression rejected")
		return nil, &InvalidArgumentError{ID: expr, Index: 0, Err: err}
	}
	isNew := p.sessions.Remember(expr)
	log.Debug().Strs("terms", terms).Str("expression", expr).Bool("new", isNew).Msg("result set served")
	return []string{expr}, nil
}

// ResultMetas evaluates every id. Under the all-or-nothing policy the first
// failing id (by position) fails the call; under the partial policy failing
// ids get a record whose description carries the reason.
func (p *Provider) ResultMetas(ctx context.Context, ids []string) ([]Meta, error) {
	log := p.requestLogger("GetResultMetas")

	if limit := p.ctrl.LimitsSnapshot().MaxResultIDs; limit > 0 && len(ids) > limit {
		log.Warn().Int("ids", len(ids)).Int("max", limit).Msg("metas request rejected")
		return nil, &InvalidArgumentError{Index: -1, Err: ErrTooManyIDs}
	}

	metas := make([]Meta, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			if err := p.ctrl.AcquireEvaluation(gctx); err != nil {
				return err
			}
			defer p.ctrl.ReleaseEvaluation()
			metas[i], errs[i] = p.meta(id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("metas request aborted")
		return nil, err
	}

	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		log.Info().Str("id", ids[i]).Bool("known", p.sessions.IsKnown(ids[i])).Err(err).Msg("id failed to evaluate")
		if p.policy != config.MetasPartial {
			return nil, &InvalidArgumentError{ID: ids[i], Index: i, Err: err}
		}
		metas[i] = Meta{ID: ids[i], Name: ids[i], Description: err.Error()}
	}

	log.Debug().Int("ids", len(ids)).Int("failed", failed).Msg("metas served")
	return metas, nil
}

func (p *Provider) meta(id string) (Meta, error) {
	v, err := p.evaluate(id)
	if err != nil {
		return Meta{}, err
	}
	return Meta{ID: id, Name: calc.Format(v), Description: id}, nil
}

func (p *Provider) evaluate(expr string) (float64, error) {
	if err := p.checkSize(expr); err != nil {
		return 0, err
	}
	return p.calc.Eval(expr)
}

// Evaluate runs one expression through the pipeline without touching the
// session registry.
func (p *Provider) Evaluate(ctx context.Context, expr string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.evaluate(expr)
}

// ActivateResult acknowledges that the user picked a result.
func (p *Provider) ActivateResult(ctx context.Context, id string, terms []string, timestamp uint32) error {
	log := p.requestLogger("ActivateResult")
	log.Info().Str("id", id).Strs("terms", terms).Uint32("timestamp", timestamp).Msg("result activated")
	return nil
}

// LaunchSearch acknowledges a request to open the full search view.
func (p *Provider) LaunchSearch(ctx context.Context, terms []string, timestamp uint32) error {
	log := p.requestLogger("LaunchSearch")
	log.Info().Strs("terms", terms).Uint32("timestamp", timestamp).Msg("search launched")
	return nil
}
