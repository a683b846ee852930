package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/soc-pilot/drc/internal/checker"
	"github.com/soc-pilot/drc/internal/component"
	"github.com/soc-pilot/drc/internal/config"
	"github.com/soc-pilot/drc/internal/logger"
	"github.com/soc-pilot/drc/internal/metrics"
	"github.com/soc-pilot/drc/internal/server"
	"github.com/soc-pilot/drc/internal/service"
	"github.com/soc-pilot/drc/internal/store"
)

func newServeCmd(*globalOptions) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the DRC HTTP service",
		Long: `Run the DRC HTTP service.

Configuration comes from --config (or ./drc.yaml when present), a .env file
and SOCDRC_* environment variables, in increasing precedence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	return cmd
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	lib, err := component.Open(cfg.Library.Dir, log)
	if err != nil {
		return err
	}
	if err := lib.EnsureInitialized(ctx); err != nil {
		log.Warn("component library not ready, checks will fail until it loads", "dir", cfg.Library.Dir, "error", err)
	}
	if fl, ok := lib.(*component.FileLibrary); ok {
		fl.OnReload = m.LibraryReloaded
		if cfg.Library.Watch {
			go func() {
				if err := fl.Watch(ctx); err != nil {
					log.Error("component library watch stopped", "error", err)
				}
			}()
		}
	}

	st, err := store.New(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("close report store", "error", err)
		}
	}()

	c := checker.New(lib).WithLogger(log).WithObserver(m)
	svc := service.New(c, st, log, cfg.DRC).OnStoreError(m.StoreError)

	log.Info("starting drc service",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Type,
		"rules", len(c.Catalog()),
	)
	return server.New(svc, m, log, cfg.Server).Run(ctx)
}
