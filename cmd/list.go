package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/internal/resolver"
	"github.com/CloudNativeWorks/fillfetch/pkg/logger"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [project] [version]",
	Short: "List version groups of a project, or the builds of a version",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := parseTarget(args)
		if err != nil {
			return err
		}
		project, err := fill.ParseProject(req.Project)
		if err != nil {
			return err
		}

		client := newClient(logger.NewLogger("list"))
		if req.Version == "" {
			info, err := client.GetProject(cmd.Context(), project)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatGroups(info))
			return nil
		}

		builds, err := client.GetBuilds(cmd.Context(), project, req.Version)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatBuilds(builds, req.Artifact))
		return nil
	},
}

func formatGroups(info *fill.ProjectInfo) *uitable.Table {
	keys := info.GroupKeys()
	resolver.SortGroupKeys(keys)

	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	table.AddRow("GROUP", "VERSIONS")
	for _, k := range keys {
		table.AddRow(k, strings.Join(info.Versions[k], ", "))
	}
	return table
}

// formatBuilds lists builds newest first; the row that would be picked by
// default is marked with "*".
func formatBuilds(builds fill.BuildList, artifact string) *uitable.Table {
	sorted := make(fill.BuildList, len(builds))
	copy(sorted, builds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })

	latest := -1
	if len(builds) > 0 {
		latest = resolver.LatestBuild(builds).ID
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("", "BUILD", "CHANNEL", "TIME", "FILE", "SIZE")
	for _, b := range sorted {
		mark := ""
		if b.ID == latest {
			mark = "*"
		}
		name, size := "-", "-"
		if d, ok := b.Downloads[artifact]; ok {
			name, size = d.Name, fmt.Sprintf("%d", d.Size)
		}
		when := "-"
		if !b.Time.IsZero() {
			when = b.Time.UTC().Format("2006-01-02 15:04")
		}
		table.AddRow(mark, b.ID, b.Channel, when, name, size)
	}
	return table
}

func init() {
	RootCmd.AddCommand(listCmd)
}
