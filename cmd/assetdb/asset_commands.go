package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwantia/assetdb/data"
)

// readInput reads path, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf, nil
}

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create missing sidecars and reimport stale assets of every mount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd, nil, func(s *session) error {
				return ctx.renderAssetResults(cmd, s.initial)
			})
		},
	}
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <url>",
		Short: "Clear and reimport everything below url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd, nil, func(s *session) error {
				results, err := s.db.Refresh(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return ctx.renderRefreshResults(cmd, results)
			})
		},
	}
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create <url> [file|-]",
		Short: "Create a new asset through the export of its meta type",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content []byte
			if len(args) == 2 {
				var err error
				if content, err = readInput(cmd, args[1]); err != nil {
					return err
				}
			}

			return ctx.withDB(cmd, nil, func(s *session) error {
				results, err := s.db.Create(cmd.Context(), args[0], content)
				if err != nil {
					return err
				}
				return ctx.renderAssetResults(cmd, results)
			})
		},
	}
}

func newSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save <url> <file|->",
		Short: "Overwrite an asset and regenerate its imports",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			return ctx.withDB(cmd, nil, func(s *session) error {
				result, err := s.db.Save(cmd.Context(), args[0], content)
				if err != nil {
					return err
				}
				return ctx.renderAssetResults(cmd, []data.AssetResult{*result})
			})
		},
	}
}

func newSaveMetaCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save-meta <uuid> <file|->",
		Short: "Replace the sidecar of an asset and regenerate its imports",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			return ctx.withDB(cmd, nil, func(s *session) error {
				result, err := s.db.SaveMeta(cmd.Context(), args[0], content)
				if err != nil {
					return err
				}
				return ctx.renderAssetResults(cmd, []data.AssetResult{*result})
			})
		},
	}
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dest-url> <files...>",
		Short: "Copy external files into a folder and import them",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd, nil, func(s *session) error {
				results, err := s.db.Import(cmd.Context(), args[1:], args[0])
				if err != nil {
					return err
				}
				return ctx.renderAssetResults(cmd, results)
			})
		},
	}
}

func newMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <src-url> <dest-url>",
		Short: "Move or rename an asset keeping its uuid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd, nil, func(s *session) error {
				results, err := s.db.Move(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return ctx.renderMoveResults(cmd, results)
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <url...>",
		Short: "Delete assets with their sidecars and imports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd, nil, func(s *session) error {
				var deleted []data.DeleteResult
				for _, url := range args {
					results, err := s.db.Delete(cmd.Context(), url)
					if err != nil {
						return err
					}
					deleted = append(deleted, results...)
				}
				return ctx.renderDeleteResults(cmd, deleted)
			})
		},
	}
}

func newClearImportsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-imports <url>",
		Short: "Drop the imports and identities below url, keeping the files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd, nil, func(s *session) error {
				infos, err := s.db.ClearImports(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return ctx.renderAssetInfos(cmd, infos)
			})
		},
	}
}
