package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/CloudNativeWorks/fillfetch/internal/config"
	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/internal/operations/download"
	"github.com/CloudNativeWorks/fillfetch/internal/operations/verify"
	"github.com/CloudNativeWorks/fillfetch/internal/pipeline"
	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
	"github.com/CloudNativeWorks/fillfetch/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile         string
	outputDir       string
	artifact        string
	noVerify        bool
	allowUnverified bool
	logLevel        string
	logFormat       string
	Cfg             *config.Config
	Version         string
)

var RootCmd = &cobra.Command{
	Use:   "fillfetch [project] [version] [build]",
	Short: "Download and verify a server jar from the Fill build index",
	Long: `fillfetch resolves the latest version and build of a project when they are
not given, downloads the build's server jar and verifies its sha256 checksum.

Supported projects: paper (default), folia, velocity.`,
	Example: `  fillfetch
  fillfetch folia
  fillfetch paper 1.21.4
  fillfetch velocity 3.4.0-SNAPSHOT 500`,
	Args:              cobra.MaximumNArgs(3),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
	RunE:              runFetch,
}

// Execute runs the root command; the returned error carries an errdefs kind
// when it came from the fetch pipeline.
func Execute(ctx context.Context, version string) error {
	Version = version
	return RootCmd.ExecuteContext(ctx)
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./fillfetch.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config file)")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides config file)")
	RootCmd.PersistentFlags().StringVar(&artifact, "artifact", "", "download key of the artifact (default: server:default)")

	RootCmd.Flags().StringVarP(&outputDir, "dir", "d", "", "directory to save the artifact in (default: current directory)")
	RootCmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip checksum verification")
	RootCmd.Flags().BoolVar(&allowUnverified, "allow-unverified", false, "keep artifacts whose descriptor has no checksum")
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration could not be loaded: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if outputDir != "" {
		cfg.Download.Dir = outputDir
	}
	if artifact != "" {
		cfg.Download.Artifact = artifact
	}
	if noVerify {
		cfg.Verify.Enabled = false
	}
	if allowUnverified {
		cfg.Verify.AllowUnverified = true
	}

	if err := logger.Init(cfg.LoggerConfig(cmd.Name())); err != nil {
		return fmt.Errorf("logger could not be initialized: %w", err)
	}

	Cfg = cfg
	return nil
}

// parseTarget turns positional [project] [version] [build] into a request.
func parseTarget(args []string) (pipeline.Request, error) {
	req := pipeline.Request{Artifact: Cfg.Download.Artifact}
	if len(args) > 0 {
		req.Project = args[0]
	}
	if _, err := fill.ParseProject(req.Project); err != nil {
		return req, err
	}
	if len(args) > 1 && args[1] != "latest" {
		req.Version = args[1]
	}
	if len(args) > 2 && args[2] != "latest" {
		build, err := strconv.Atoi(args[2])
		if err != nil || build <= 0 {
			return req, errdefs.Validationf("parse build", "build %q must be a positive number", args[2])
		}
		req.Build = build
	}
	return req, nil
}

func newClient(log *logger.Logger) *fill.Client {
	return fill.NewClient(Cfg.FillConfig(Version), fill.WithLogger(log.Component("fill-client")))
}

// newPipeline wires the index client, downloader and verifier from Cfg.
// Progress and resolution lines are written to out.
func newPipeline(out io.Writer, log *logger.Logger) *pipeline.Pipeline {
	client := newClient(log)
	log.WithFields(logger.Fields{
		"base_url":   client.Config().BaseURL,
		"request_id": client.RequestID(),
	}).Debug("Index client ready")

	downloader := download.NewDownloader(
		download.WithHTTPClient(&http.Client{Timeout: Cfg.Download.Timeout}),
		download.WithDir(Cfg.Download.Dir),
		download.WithUserAgent(client.Config().UserAgent),
		download.WithProgress(download.PercentProgress(out, 10)),
		download.WithLogger(log.Component("downloader")),
	)
	verifier := verify.NewVerifier(
		verify.WithAlgorithm(Cfg.Verify.Algorithm),
		verify.WithAllowUnverified(Cfg.Verify.AllowUnverified),
		verify.WithLogger(log.Component("verifier")),
	)

	return pipeline.New(client, downloader, verifier,
		pipeline.WithOutput(out),
		pipeline.WithVerification(Cfg.Verify.Enabled),
		pipeline.WithLogger(log.Component("pipeline")),
	)
}

func runFetch(cmd *cobra.Command, args []string) error {
	req, err := parseTarget(args)
	if err != nil {
		return err
	}

	log := logger.NewLogger("fetch")
	_, err = newPipeline(cmd.OutOrStdout(), log).Run(cmd.Context(), req)
	return err
}
