package main

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/index"
)

func newTreeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show every mount with its assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd, nil, func(s *session) error {
				roots, err := s.db.DeepQuery(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.renderTree(cmd, roots)
			})
		},
	}
}

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var assetType string
	var metas bool

	cmd := &cobra.Command{
		Use:   "query <pattern>",
		Short: "List assets, or their sidecars, matching a url glob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd, nil, func(s *session) error {
				if !metas {
					infos, err := s.db.QueryAssets(cmd.Context(), args[0], assetType)
					if err != nil {
						return err
					}
					return ctx.renderAssetInfos(cmd, infos)
				}

				found, err := s.db.QueryMetas(cmd.Context(), args[0], assetType)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(found))
				for _, m := range found {
					header := m.MetaHeader()
					rows = append(rows, []string{header.UUID, header.AssetType, fmt.Sprint(header.Ver), s.db.UUIDToURL(header.UUID)})
				}
				return ctx.render(cmd, nonNil(found), []string{"UUID", "Type", "Ver", "URL"}, rows)
			})
		},
	}

	cmd.Flags().StringVarP(&assetType, "type", "t", "", "Only list assets of this asset-type")
	cmd.Flags().BoolVar(&metas, "metas", false, "List sidecars instead of assets; the pattern must match .meta files")

	return cmd
}

// newLookupCommand resolves a uuid or path through the index without mounting anything.
func newLookupCommand(ctx *commandContext) *cobra.Command {
	var mount string

	cmd := &cobra.Command{
		Use:   "lookup [uuid|path]",
		Short: "Resolve uuids or paths through the index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Index.Enabled {
				return fmt.Errorf("the index is disabled in the configuration")
			}

			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryRLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errLocked
			}
			defer lock.Unlock()

			idx, err := index.Open(cmd.Context(), cfg.Index.Path)
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer idx.Close()

			if len(args) == 0 {
				entries, err := idx.List(cmd.Context(), mount)
				if err != nil {
					return err
				}
				return ctx.renderIndexEntries(cmd, entries)
			}

			var entry *data.IndexEntry
			if filepath.IsAbs(args[0]) {
				entry, err = idx.LookupPath(cmd.Context(), filepath.Clean(args[0]))
			} else {
				entry, err = idx.Lookup(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return ctx.renderIndexEntries(cmd, []data.IndexEntry{*entry})
		},
	}

	cmd.Flags().StringVarP(&mount, "mount", "m", "", "Only list entries of this mount")

	return cmd
}
