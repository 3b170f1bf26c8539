package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"plantary/internal/api"
	"plantary/internal/core"
	"plantary/internal/intake"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra []core.ServiceOption
			if trace, _ := cmd.Flags().GetBool("trace"); trace {
				extra = append(extra, core.WithTracer(core.NewJSONTracer(cmd.ErrOrStderr())))
			}
			a, err := openApp(cmd, v, extra...)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, nil)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides http.addr)")
	cmd.Flags().Bool("trace", false, "write JSON trace spans to stderr")
	_ = v.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

// serve runs the API until ctx is cancelled. A nil listener means listen on
// the configured address.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	handler := api.NewHandler(a.svc)
	handler.Intake = intake.New(a.blobs, a.svc, append(a.cfg.IntakeOptions(), intake.WithLogger(a.logger))...)
	server := api.NewServer(a.cfg.HTTP.Addr, handler,
		api.WithGatherer(a.registry),
		api.WithServerLogger(a.logger),
	)
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", a.cfg.HTTP.Addr); err != nil {
			return err
		}
	}

	done := make(chan error, 1)
	go func() { done <- server.Serve(ln) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-done
}
