package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mwantia/assetdb"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the asset mounts imported while files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var roots []string
			for _, mnt := range cfg.Mounts {
				if data.MountType(mnt.Type) == data.MountTypeAsset {
					roots = append(roots, mnt.Path)
				}
			}
			if len(roots) == 0 {
				return fmt.Errorf("no asset mounts configured")
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(sigCtx)

			logger := ctx.logger(cmd, cfg)

			// Set once the session is open; the callback only fires after Run starts.
			var db *assetdb.AssetDB

			w, err := watch.New(watch.Config{
				Roots:    roots,
				Ignore:   cfg.Watch.Ignore,
				Debounce: cfg.Debounce(),
				Logger:   logger.Named("watch"),
				OnChange: func(ctx context.Context, changed []string) error {
					for _, path := range watch.TopLevel(changed) {
						results, err := db.Refresh(ctx, path)
						if err != nil {
							logger.Warn("refresh of %s failed: %v", path, err)
							continue
						}
						for _, r := range results {
							logger.Info("%s %s (%s)", r.Command, r.URL, r.UUID)
						}
					}
					return nil
				},
			})
			if err != nil {
				return err
			}

			return ctx.withDB(cmd, []assetdb.Option{assetdb.WithWatcher(w)}, func(s *session) error {
				db = s.db
				logger.Info("watching %d asset mounts", len(roots))

				if err := w.Run(sigCtx); err != nil {
					return err
				}
				return nil
			})
		},
	}
}
