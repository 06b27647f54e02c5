package bus

import (
	"context"
	"errors"

	"github.com/godbus/dbus/v5"

	"github.com/vinodismyname/toasty/internal/provider"
	"github.com/vinodismyname/toasty/internal/runtime"
	"github.com/vinodismyname/toasty/internal/telemetry"
)

// InterfaceName is the search provider interface exported on the bus.
const InterfaceName = "org.gnome.Shell.SearchProvider2"

// D-Bus error names returned to callers.
const (
	ErrorInvalidArgs    = "org.freedesktop.DBus.Error.InvalidArgs"
	ErrorLimitsExceeded = "org.freedesktop.DBus.Error.LimitsExceeded"
	ErrorTimeout        = "org.freedesktop.DBus.Error.Timeout"
)

// SearchProvider adapts a provider.Provider to the bus method signatures.
// Every exported method is a D-Bus method.
type SearchProvider struct {
	prov  *provider.Provider
	ctrl  *runtime.Controller
	hooks *telemetry.Hooks
}

// NewSearchProvider binds the bus object to prov. Calls run under ctrl's
// request guardrails and are reported to hooks.
func NewSearchProvider(prov *provider.Provider, ctrl *runtime.Controller, hooks *telemetry.Hooks) *SearchProvider {
	return &SearchProvider{prov: prov, ctrl: ctrl, hooks: hooks}
}

func (s *SearchProvider) call(method string, fn func(context.Context) error) *dbus.Error {
	done := s.hooks.Track(method)
	err := s.ctrl.Run(context.Background(), fn)
	done(err)
	if err != nil {
		return busError(err)
	}
	return nil
}

// GetInitialResultSet returns the joined terms as the single result id.
func (s *SearchProvider) GetInitialResultSet(terms []string) ([]string, *dbus.Error) {
	var ids []string
	derr := s.call("GetInitialResultSet", func(ctx context.Context) error {
		var err error
		ids, err = s.prov.InitialResultSet(ctx, terms)
		return err
	})
	return ids, derr
}

// GetSubsearchResultSet behaves as GetInitialResultSet.
func (s *SearchProvider) GetSubsearchResultSet(previous, terms []string) ([]string, *dbus.Error) {
	var ids []string
	derr := s.call("GetSubsearchResultSet", func(ctx context.Context) error {
		var err error
		ids, err = s.prov.SubsearchResultSet(ctx, previous, terms)
		return err
	})
	return ids, derr
}

// GetResultMetas returns one a{sv} record per id with string variants for
// id, name and description.
func (s *SearchProvider) GetResultMetas(ids []string) ([]map[string]dbus.Variant, *dbus.Error) {
	var out []map[string]dbus.Variant
	derr := s.call("GetResultMetas", func(ctx context.Context) error {
		metas, err := s.prov.ResultMetas(ctx, ids)
		if err != nil {
			return err
		}
		out = make([]map[string]dbus.Variant, len(metas))
		for i, m := range metas {
			out[i] = metaVariants(m)
		}
		return nil
	})
	if derr != nil {
		return nil, derr
	}
	return out, nil
}

// ActivateResult acknowledges an activated result.
func (s *SearchProvider) ActivateResult(id string, terms []string, timestamp uint32) *dbus.Error {
	return s.call("ActivateResult", func(ctx context.Context) error {
		return s.prov.ActivateResult(ctx, id, terms, timestamp)
	})
}

// LaunchSearch acknowledges a launch request.
func (s *SearchProvider) LaunchSearch(terms []string, timestamp uint32) *dbus.Error {
	return s.call("LaunchSearch", func(ctx context.Context) error {
		return s.prov.LaunchSearch(ctx, terms, timestamp)
	})
}

func metaVariants(m provider.Meta) map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"id":          dbus.MakeVariant(m.ID),
		"name":        dbus.MakeVariant(m.Name),
		"description": dbus.MakeVariant(m.Description),
	}
}

func busError(err error) *dbus.Error {
	switch {
	case errors.Is(err, provider.ErrInvalidArgument):
		return dbus.NewError(ErrorInvalidArgs, []any{err.Error()})
	case errors.Is(err, runtime.ErrBusy):
		return dbus.NewError(ErrorLimitsExceeded, []any{err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return dbus.NewError(ErrorTimeout, []any{err.Error()})
	}
	return dbus.MakeFailedError(err)
}
