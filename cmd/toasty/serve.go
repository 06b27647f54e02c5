package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vinodismyname/toasty/internal/bus"
	"github.com/vinodismyname/toasty/pkg/version"
)

func newServeCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Export the search provider on the session bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			limits := a.ctrl.LimitsSnapshot()
			a.logger.Info().
				Str("version", version.Version()).
				Str("bus_name", a.cfg.Bus.Name).
				Int("max_concurrent_requests", limits.MaxConcurrentRequests).
				Int("max_session_entries", a.sessions.Capacity()).
				Str("metas_policy", a.cfg.Metas.Policy).
				Msg("server bootstrap configured")

			sp := bus.NewSearchProvider(a.prov, a.ctrl, a.hooks)
			return bus.Serve(ctx, a.cfg.Bus, sp, a.hooks, a.logger)
		},
	}
}
