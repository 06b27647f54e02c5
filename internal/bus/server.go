package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/rs/zerolog"

	"github.com/vinodismyname/toasty/config"
	"github.com/vinodismyname/toasty/internal/telemetry"
)

// ErrNameTaken is returned when another connection keeps the bus name.
var ErrNameTaken = errors.New("bus: name already owned by another connection")

// Node describes the exported object for introspection.
func Node() *introspect.Node {
	as := func(name, dir string) introspect.Arg { return introspect.Arg{Name: name, Type: "as", Direction: dir} }
	return &introspect.Node{
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: InterfaceName,
				Methods: []introspect.Method{
					{Name: "GetInitialResultSet", Args: []introspect.Arg{as("terms", "in"), as("results", "out")}},
					{Name: "GetSubsearchResultSet", Args: []introspect.Arg{as("previous_results", "in"), as("terms", "in"), as("results", "out")}},
					{Name: "GetResultMetas", Args: []introspect.Arg{as("identifiers", "in"), {Name: "metas", Type: "aa{sv}", Direction: "out"}}},
					{Name: "ActivateResult", Args: []introspect.Arg{{Name: "identifier", Type: "s", Direction: "in"}, as("terms", "in"), {Name: "timestamp", Type: "u", Direction: "in"}}},
					{Name: "LaunchSearch", Args: []introspect.Arg{as("terms", "in"), {Name: "timestamp", Type: "u", Direction: "in"}}},
				},
			},
		},
	}
}

// Export registers sp and its introspection data at path on conn.
func Export(conn *dbus.Conn, path dbus.ObjectPath, sp *SearchProvider) error {
	if err := conn.Export(sp, path, InterfaceName); err != nil {
		return fmt.Errorf("export %s: %w", InterfaceName, err)
	}
	if err := conn.Export(introspect.NewIntrospectable(Node()), path, introspect.IntrospectData.Name); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}
	return nil
}

// Serve connects to the session bus, exports sp, takes ownership of the
// configured name and handles calls until ctx is done.
func Serve(ctx context.Context, cfg config.BusConfig, sp *SearchProvider, hooks *telemetry.Hooks, logger zerolog.Logger) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	path := dbus.ObjectPath(cfg.ObjectPath)
	if err := Export(conn, path, sp); err != nil {
		return err
	}

	reply, err := conn.RequestName(cfg.Name, dbus.NameFlagReplaceExisting|dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request name %s: %w", cfg.Name, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner && reply != dbus.RequestNameReplyAlreadyOwner {
		return fmt.Errorf("%w: %s", ErrNameTaken, cfg.Name)
	}

	logger.Info().Str("bus_name", cfg.Name).Str("object_path", cfg.ObjectPath).Msg("search provider exported")
	hooks.OnServerStart("dbus", cfg.Name)

	<-ctx.Done()

	if _, err := conn.ReleaseName(cfg.Name); err != nil {
		logger.Warn().Err(err).Msg("failed to release bus name")
	}
	hooks.OnServerStop("dbus", nil)
	return nil
}
