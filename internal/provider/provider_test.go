package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vinodismyname/toasty/config"
	"github.com/vinodismyname/toasty/internal/runtime"
	"github.com/vinodismyname/toasty/internal/session"
	"github.com/vinodismyname/toasty/pkg/calc"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestProvider(t *testing.T, opts ...Option) (*Provider, *session.Registry) {
	t.Helper()
	reg := session.NewRegistry(0)
	ctrl := runtime.NewController(runtime.NewLimits(4, 2))
	return New(reg, ctrl, opts...), reg
}

func TestInitialResultSet_JoinsTermsAndRemembers(t *testing.T) {
	p, reg := newTestProvider(t)

	ids, err := p.InitialResultSet(context.Background(), []string{"2", "+", "2"})
	require.NoError(t, err)
	require.Equal(t, []string{"2 + 2"}, ids)
	require.True(t, reg.IsKnown("2 + 2"))

	ids, err = p.InitialResultSet(context.Background(), []string{"2", "+", "2"})
	require.NoError(t, err)
	require.Equal(t, []string{"2 + 2"}, ids)
	require.Equal(t, 1, reg.Len())
}

func TestInitialResultSet_DoesNotValidate(t *testing.T) {
	p, _ := newTestProvider(t)

	ids, err := p.InitialResultSet(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	require.Equal(t, []string{"hello world"}, ids)

	ids, err = p.InitialResultSet(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, []string{""}, ids)
}

func TestSubsearchResultSet_IgnoresPrevious(t *testing.T) {
	p, reg := newTestProvider(t)

	ids, err := p.SubsearchResultSet(context.Background(), []string{"2 +"}, []string{"2", "+", "3"})
	require.NoError(t, err)
	require.Equal(t, []string{"2 + 3"}, ids)
	require.True(t, reg.IsKnown("2 + 3"))
	require.False(t, reg.IsKnown("2 +"))
}

func TestResultSet_RejectsOversizedExpression(t *testing.T) {
	reg := session.NewRegistry(0)
	limits := runtime.NewLimits(1, 1)
	limits.MaxExpressionBytes = 8
	p := New(reg, runtime.NewController(limits))

	_, err := p.InitialResultSet(context.Background(), []string{strings.Repeat("1", 9)})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, err, ErrExpressionTooLarge)
	require.Equal(t, 0, reg.Len())
}

func TestResultMetas_EvaluatesInOrder(t *testing.T) {
	p, _ := newTestProvider(t)

	metas, err := p.ResultMetas(context.Background(), []string{"2 + 2", "3 * 4", "-2^2", "7 / 2"})
	require.NoError(t, err)
	require.Equal(t, []Meta{
		{ID: "2 + 2", Name: "4", Description: "2 + 2"},
		{ID: "3 * 4", Name: "12", Description: "3 * 4"},
		{ID: "-2^2", Name: "-4", Description: "-2^2"},
		{ID: "7 / 2", Name: "3.5", Description: "7 / 2"},
	}, metas)
}

func TestResultMetas_Empty(t *testing.T) {
	p, _ := newTestProvider(t)

	metas, err := p.ResultMetas(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, metas)
}

func TestResultMetas_UnknownIDsAreEvaluated(t *testing.T) {
	p, reg := newTestProvider(t)

	metas, err := p.ResultMetas(context.Background(), []string{"10 % 4"})
	require.NoError(t, err)
	require.Equal(t, "2", metas[0].Name)
	require.False(t, reg.IsKnown("10 % 4"))
}

func TestResultMetas_AllOrNothingReportsFirstFailure(t *testing.T) {
	p, _ := newTestProvider(t)

	metas, err := p.ResultMetas(context.Background(), []string{"1 + 1", "2 +", "1 / 0"})
	require.Nil(t, metas)
	require.ErrorIs(t, err, ErrInvalidArgument)

	var iae *InvalidArgumentError
	require.ErrorAs(t, err, &iae)
	require.Equal(t, "2 +", iae.ID)
	require.Equal(t, 1, iae.Index)
	require.ErrorIs(t, err, calc.ErrMissingOperand)
}

func TestResultMetas_DivisionByZero(t *testing.T) {
	p, _ := newTestProvider(t)

	_, err := p.ResultMetas(context.Background(), []string{"1 / 0"})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, err, calc.ErrDivisionByZero)
	require.Contains(t, err.Error(), `"1 / 0"`)
}

func TestResultMetas_PartialPolicy(t *testing.T) {
	p, _ := newTestProvider(t, WithMetasPolicy(config.MetasPartial))

	metas, err := p.ResultMetas(context.Background(), []string{"1 + 1", "foo(2)", "(1"})
	require.NoError(t, err)
	require.Len(t, metas, 3)
	require.Equal(t, Meta{ID: "1 + 1", Name: "2", Description: "1 + 1"}, metas[0])

	require.Equal(t, "foo(2)", metas[1].Name)
	require.Contains(t, metas[1].Description, "unknown")
	require.Equal(t, "(1", metas[2].Name)
	require.NotEmpty(t, metas[2].Description)
}

func TestResultMetas_TooManyIDs(t *testing.T) {
	reg := session.NewRegistry(0)
	limits := runtime.NewLimits(1, 1)
	limits.MaxResultIDs = 2
	p := New(reg, runtime.NewController(limits))

	_, err := p.ResultMetas(context.Background(), []string{"1", "2", "3"})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, err, ErrTooManyIDs)

	var iae *InvalidArgumentError
	require.ErrorAs(t, err, &iae)
	require.Equal(t, -1, iae.Index)
}

func TestResultMetas_CanceledContext(t *testing.T) {
	reg := session.NewRegistry(0)
	ctrl := runtime.NewController(runtime.NewLimits(1, 1))
	p := New(reg, ctrl)

	// Hold the only evaluation slot so the request must wait.
	require.NoError(t, ctrl.AcquireEvaluation(context.Background()))
	defer ctrl.ReleaseEvaluation()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.ResultMetas(ctx, []string{"1 + 1"})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.False(t, errors.Is(err, ErrInvalidArgument))
}

func TestResultMetas_CustomContext(t *testing.T) {
	cc := calc.NewContext(calc.WithConstant("answer", 42))
	p, _ := newTestProvider(t, WithCalcContext(cc))

	metas, err := p.ResultMetas(context.Background(), []string{"answer / 2"})
	require.NoError(t, err)
	require.Equal(t, "21", metas[0].Name)
}

func TestEvaluate(t *testing.T) {
	p, reg := newTestProvider(t)

	v, err := p.Evaluate(context.Background(), "2 * (3 + 4)")
	require.NoError(t, err)
	require.Equal(t, 14.0, v)
	require.Equal(t, 0, reg.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Evaluate(ctx, "1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestActivateAndLaunch_NoEffect(t *testing.T) {
	p, reg := newTestProvider(t)

	require.NoError(t, p.ActivateResult(context.Background(), "never seen", []string{"x"}, 7))
	require.NoError(t, p.LaunchSearch(context.Background(), []string{"1", "+"}, 0))
	require.Equal(t, 0, reg.Len())
}

func TestProvider_ConcurrentCalls(t *testing.T) {
	p, reg := newTestProvider(t)

	done := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func() {
			if _, err := p.InitialResultSet(context.Background(), []string{"3", "*", "3"}); err != nil {
				done <- err
				return
			}
			metas, err := p.ResultMetas(context.Background(), []string{"3 * 3", "2 ^ 10"})
			if err == nil && (metas[0].Name != "9" || metas[1].Name != "1024") {
				err = errors.New("unexpected metas")
			}
			done <- err
		}()
	}
	for i := 0; i < 16; i++ {
		require.NoError(t, <-done)
	}
	require.Equal(t, 1, reg.Len())
}
