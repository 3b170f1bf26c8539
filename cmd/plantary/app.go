package main

import (
	"context"
	"io"
	"plantary/internal/blob"
	"plantary/internal/config"
	"plantary/internal/core"
	"plantary/internal/logging"
	"plantary/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app bundles the service graph built once per command invocation.
type app struct {
	cfg      config.Config
	logger   *logging.Logger
	store    domain.PersistentStore
	blobs    blob.Store
	registry *prometheus.Registry
	svc      *core.Service
}

func openApp(cmd *cobra.Command, v *viper.Viper, extra ...core.ServiceOption) (*app, error) {
	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, err
	}
	logger, err := logging.InitLogger(cmd.ErrOrStderr(), "plantary", cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	store, err := core.OpenStorage(cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, err
	}
	blobs, err := blob.OpenConfig(cmd.Context(), cfg.Blob)
	if err != nil {
		_ = closeStore(store)
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opts, err := cfg.ServiceOptions()
	if err != nil {
		_ = closeStore(store)
		return nil, err
	}
	opts = append(opts,
		core.WithLogger(logger),
		core.WithMetricsRecorder(core.MultiMetricsRecorder{
			core.NewPrometheusMetricsRecorder(registry),
			core.NewExpvarMetricsRecorder(""),
		}),
	)
	opts = append(opts, extra...)

	logger.Debug("ledger opened", "storage", string(cfg.Storage.Driver), "blob", string(blobs.Driver()))
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		blobs:    blobs,
		registry: registry,
		svc:      core.NewService(store, opts...),
	}, nil
}

// adminContext carries the --as account, or the configured admin.
func (a *app) adminContext(cmd *cobra.Command) context.Context {
	caller := a.cfg.Admin
	if as, _ := cmd.Flags().GetString("as"); as != "" {
		caller = as
	}
	return core.WithCaller(cmd.Context(), domain.AccountID(caller))
}

func (a *app) Close() error {
	return closeStore(a.store)
}

func closeStore(store domain.PersistentStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
