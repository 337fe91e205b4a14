package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/spf13/cobra"

	"github.com/mwantia/assetdb/data"
)

// render prints v as JSON when requested, otherwise the table built from headers and rows.
func (c *commandContext) render(cmd *cobra.Command, v any, headers []string, rows [][]string) error {
	if c.json() {
		return writeJSON(cmd, v)
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No assets affected")
		return nil
	}

	fmt.Fprintln(out, renderTable(headers, rows))
	return nil
}

func (c *commandContext) renderAssetResults(cmd *cobra.Command, results []data.AssetResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.UUID, r.Type, r.URL, r.ParentUUID})
	}
	return c.render(cmd, nonNil(results), []string{"UUID", "Type", "URL", "Parent"}, rows)
}

func (c *commandContext) renderAssetInfos(cmd *cobra.Command, infos []data.AssetInfo) error {
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.UUID, info.Type, info.URL})
	}
	return c.render(cmd, nonNil(infos), []string{"UUID", "Type", "URL"}, rows)
}

func (c *commandContext) renderRefreshResults(cmd *cobra.Command, results []data.RefreshResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{string(r.Command), r.UUID, r.Type, r.URL, r.OldUUID})
	}
	return c.render(cmd, nonNil(results), []string{"Command", "UUID", "Type", "URL", "Old UUID"}, rows)
}

func (c *commandContext) renderMoveResults(cmd *cobra.Command, results []data.MoveResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.UUID, r.SrcPath, r.DestPath, r.SrcMountType.String() + " -> " + r.DestMountType.String()})
	}
	return c.render(cmd, nonNil(results), []string{"UUID", "From", "To", "Mounts"}, rows)
}

func (c *commandContext) renderDeleteResults(cmd *cobra.Command, results []data.DeleteResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.UUID, r.Path})
	}
	return c.render(cmd, nonNil(results), []string{"UUID", "Path"}, rows)
}

func (c *commandContext) renderIndexEntries(cmd *cobra.Command, entries []data.IndexEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.UUID, e.Type, e.URL, e.Path})
	}
	return c.render(cmd, nonNil(entries), []string{"UUID", "Type", "URL", "Path"}, rows)
}

// renderTree draws the deep query result as an indented list.
func (c *commandContext) renderTree(cmd *cobra.Command, roots []*data.QueryNode) error {
	if c.json() {
		return writeJSON(cmd, nonNil(roots))
	}

	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedRounded)

	var add func(node *data.QueryNode)
	add = func(node *data.QueryNode) {
		lw.AppendItem(treeLabel(node))
		if len(node.Children) == 0 {
			return
		}
		lw.Indent()
		for _, child := range node.Children {
			add(child)
		}
		lw.UnIndent()
	}
	for _, root := range roots {
		add(root)
	}

	fmt.Fprintln(cmd.OutOrStdout(), lw.Render())
	return nil
}

func treeLabel(node *data.QueryNode) string {
	if node.Type == "mount" {
		return node.Name + "://"
	}

	var sb strings.Builder
	sb.WriteString(node.Name + node.Extname)
	sb.WriteString(" [" + node.Type + "]")
	if node.UUID != "" {
		sb.WriteString(" " + node.UUID)
	}
	return sb.String()
}

// nonNil keeps JSON output an array when nothing matched.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
