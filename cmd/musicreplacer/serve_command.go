package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"musicreplacer/internal/api"
	"musicreplacer/internal/deps"
	"musicreplacer/internal/logging"
	"musicreplacer/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd, runtimeOptions{exclusive: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			if missing := deps.MissingRequired(deps.CheckBinaries(deps.Requirements(rt.cfg))); len(missing) > 0 {
				for _, dep := range missing {
					logging.WarnWithContext(rt.logger, "dependency unavailable", "dependency_missing",
						logging.String("dependency", dep.Name),
						logging.String("detail", dep.Detail),
						logging.String(logging.FieldErrorHint, "install it or set extractor.binary"),
						logging.String(logging.FieldImpact, "search and URL overrides fail"),
					)
				}
			}

			for _, failed := range preflight.Failed(preflight.RunAll(cmd.Context(), rt.cfg, preflight.Options{SkipNetwork: true})) {
				logging.WarnWithContext(rt.logger, "preflight check failed", "preflight_failed",
					logging.String("check", failed.Name),
					logging.String("detail", failed.Detail),
					logging.String(logging.FieldErrorHint, "run musicreplacer doctor"),
					logging.String(logging.FieldImpact, "override requests may fail"),
				)
			}

			if bind == "" {
				bind = rt.cfg.API.Bind
			}
			gin.SetMode(gin.ReleaseMode)
			router := api.NewRouter(api.Deps{
				Overrides:   rt.overrides,
				Searcher:    rt.extractor,
				Tasks:       rt.pool,
				Logger:      rt.logger,
				Token:       rt.cfg.API.Token,
				SearchLimit: rt.cfg.Extractor.SearchLimit,
				LogPath:     rt.cfg.LogPath(),
			})
			server := api.NewServer(bind, router, rt.logger)
			addr, err := server.Listen()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", addr)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Serve(runCtx)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default from config)")
	return cmd
}
