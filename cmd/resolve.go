package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/pkg/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var resolveOutput string

// resolvedArtifact is the document printed by the resolve command.
type resolvedArtifact struct {
	Project  string                  `json:"project" yaml:"project"`
	Version  string                  `json:"version" yaml:"version"`
	Build    int                     `json:"build" yaml:"build"`
	Channel  string                  `json:"channel" yaml:"channel"`
	Artifact fill.DownloadDescriptor `json:"artifact" yaml:"artifact"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [project] [version] [build]",
	Short: "Resolve a build and print its download descriptor without downloading",
	Args:  cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := parseTarget(args)
		if err != nil {
			return err
		}

		// Resolution messages go to stderr so stdout is just the document.
		res, err := newPipeline(cmd.ErrOrStderr(), logger.NewLogger("resolve")).Resolve(cmd.Context(), req)
		if err != nil {
			return err
		}

		doc := resolvedArtifact{
			Project:  string(res.Project),
			Version:  res.Version,
			Build:    res.Build.ID,
			Channel:  res.Build.Channel,
			Artifact: res.Descriptor,
		}
		return printDocument(cmd, doc, resolveOutput)
	},
}

func printDocument(cmd *cobra.Command, doc any, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (use yaml or json)", format)
	}
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "yaml", "output format: yaml or json")
	RootCmd.AddCommand(resolveCmd)
}
