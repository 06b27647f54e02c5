package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/vinodismyname/toasty/config"
	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned by Run when no request slot frees up in time.
var ErrBusy = errors.New("runtime: concurrent request limit reached")

// Limits captures the concurrency and input guardrails configured for the provider.
type Limits struct {
	// Concurrency caps
	MaxConcurrentRequests    int
	MaxConcurrentEvaluations int

	// Input bounds; 0 disables the check
	MaxExpressionBytes int
	MaxResultIDs       int

	// Timeouts
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits initializes Limits with sensible fallbacks when values are unset.
func NewLimits(maxConcurrentRequests, maxConcurrentEvaluations int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxConcurrentEvaluations <= 0 {
		maxConcurrentEvaluations = config.DefaultMaxConcurrentEvaluations
	}

	return Limits{
		MaxConcurrentRequests:    maxConcurrentRequests,
		MaxConcurrentEvaluations: maxConcurrentEvaluations,
		MaxExpressionBytes:       config.DefaultMaxExpressionBytes,
		MaxResultIDs:             config.DefaultMaxResultIDs,
		OperationTimeout:         config.DefaultOperationTimeout,
		AcquireRequestTimeout:    config.DefaultAcquireRequestTimeout,
	}
}

// LimitsFromConfig builds Limits from a loaded configuration.
func LimitsFromConfig(cfg *config.Config) Limits {
	l := NewLimits(cfg.Limits.MaxConcurrentRequests, cfg.Limits.MaxConcurrentEvaluations)
	l.MaxExpressionBytes = cfg.Limits.MaxExpressionBytes
	l.MaxResultIDs = cfg.Limits.MaxResultIDs
	l.OperationTimeout = cfg.OperationTimeout()
	l.AcquireRequestTimeout = cfg.AcquireRequestTimeout()
	return l
}

// Controller coordinates runtime semaphores for request and evaluation guardrails.
type Controller struct {
	limits              Limits
	requestSemaphore    *semaphore.Weighted
	evaluationSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:              limits,
		requestSemaphore:    semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		evaluationSemaphore: semaphore.NewWeighted(int64(limits.MaxConcurrentEvaluations)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// AcquireEvaluation reserves an expression evaluation slot.
func (c *Controller) AcquireEvaluation(ctx context.Context) error {
	return c.evaluationSemaphore.Acquire(ctx, 1)
}

// ReleaseEvaluation frees an evaluation slot.
func (c *Controller) ReleaseEvaluation() {
	c.evaluationSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}

// Run acquires a request slot with a bounded wait, applies the operation
// timeout and calls fn. It returns ErrBusy when no slot frees up in time.
func (c *Controller) Run(ctx context.Context, fn func(context.Context) error) error {
	acquireCtx := ctx
	if c.limits.AcquireRequestTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, c.limits.AcquireRequestTimeout)
		defer cancel()
	}
	if err := c.AcquireRequest(acquireCtx); err != nil {
		return ErrBusy
	}
	defer c.ReleaseRequest()

	callCtx := ctx
	if c.limits.OperationTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.limits.OperationTimeout)
		defer cancel()
	}
	return fn(callCtx)
}
