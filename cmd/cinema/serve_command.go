package main

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"cinema/internal/api"
	"cinema/internal/catalog"
	"cinema/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only catalog API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			bind := cfg.API.Bind
			if strings.TrimSpace(bindFlag) != "" {
				bind = strings.TrimSpace(bindFlag)
			}
			if strings.EqualFold(cfg.Logging.Level, "debug") {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			return ctx.withStores(cmd, catalog.Domains, func(runCtx context.Context, set *storeSet) error {
				logger := ctx.loggerValue()
				catalogs := make(map[catalog.Domain]api.Catalog, len(set.stores))
				for domain, store := range set.stores {
					catalogs[domain] = store
				}
				opts := api.Options{
					Bind:           bind,
					AllowedOrigins: cfg.API.AllowedOrigins,
					Logger:         logger,
				}
				logger.Info("starting catalog api",
					logging.String(logging.FieldEventType, "api_start"),
					logging.String("bind", bind),
					logging.Strings("allowed_origins", cfg.API.AllowedOrigins),
				)
				return api.NewServer(api.NewRouter(catalogs, opts), opts).Run(runCtx)
			})
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Override api.bind (host:port)")
	return cmd
}
