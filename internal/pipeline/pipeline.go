package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/internal/operations/download"
	"github.com/CloudNativeWorks/fillfetch/internal/operations/verify"
	"github.com/CloudNativeWorks/fillfetch/internal/resolver"
	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
	"github.com/sirupsen/logrus"
)

const checksumPrefixLen = 16

// Index is the part of the build index the pipeline queries.
type Index interface {
	resolver.ProjectFetcher
	GetBuilds(ctx context.Context, project fill.Project, version string) (fill.BuildList, error)
}

type Downloader interface {
	Download(ctx context.Context, desc fill.DownloadDescriptor) (*download.Result, error)
}

type Verifier interface {
	Verify(path string, desc fill.DownloadDescriptor) (*verify.Result, error)
}

// Request holds the raw CLI input. Empty Version and zero Build mean "latest".
type Request struct {
	Project  string
	Version  string
	Build    int
	Artifact string
}

// Resolution is everything known before the download starts.
type Resolution struct {
	Project    fill.Project
	Version    string
	Build      resolver.BuildSelection
	Descriptor fill.DownloadDescriptor
}

// Result is the outcome of a full run.
type Result struct {
	Resolution
	Path         string
	Written      int64
	Verification *verify.Result
	// Warning is set when verification was skipped.
	Warning error
}

type Option func(*Pipeline)

// WithOutput sets where human-readable progress lines go.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.out = w
		}
	}
}

// WithVerification toggles checksum verification.
func WithVerification(enabled bool) Option {
	return func(p *Pipeline) { p.verifyEnabled = enabled }
}

func WithLogger(l *logrus.Entry) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pipeline runs resolve, download and verify in order, stopping at the first error.
type Pipeline struct {
	index         Index
	downloader    Downloader
	verifier      Verifier
	verifyEnabled bool
	out           io.Writer
	logger        *logrus.Entry
}

func New(index Index, downloader Downloader, verifier Verifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		index:         index,
		downloader:    downloader,
		verifier:      verifier,
		verifyEnabled: true,
		out:           io.Discard,
		logger:        logrus.WithField("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve validates the request and resolves version, build and descriptor.
func (p *Pipeline) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	project, err := fill.ParseProject(req.Project)
	if err != nil {
		return nil, err
	}
	if req.Build < 0 {
		return nil, errdefs.Validationf("parse build", "build %d must be a positive number", req.Build)
	}

	version, info, err := resolver.ResolveVersion(ctx, p.index, project, req.Version)
	if err != nil {
		return nil, err
	}
	if req.Version == "" {
		p.printf("Resolved latest %s version: %s\n", project, version)
	} else {
		p.printf("Using %s version: %s\n", project, version)
	}

	builds, err := p.index.GetBuilds(ctx, project, version)
	if err != nil {
		if errdefs.IsNotFound(err) && info != nil {
			keys := info.GroupKeys()
			resolver.SortGroupKeys(keys)
			return nil, errdefs.NotFoundf("fetch builds", "version %s of %s not found (available groups: %s): %v",
				version, project, strings.Join(keys, ", "), err)
		}
		if errdefs.IsNotFound(err) {
			return nil, errdefs.NotFoundf("fetch builds", "version %s of %s not found; run without a version to use the latest: %v",
				version, project, err)
		}
		return nil, err
	}

	sel, err := resolver.ResolveBuild(version, builds, req.Build)
	if err != nil {
		return nil, err
	}

	desc, build, err := resolver.ExtractDescriptor(version, builds, sel.ID, req.Artifact)
	if err != nil {
		return nil, err
	}
	sel.Channel = build.Channel

	if sel.Explicit {
		p.printf("Using build: %d (%s)\n", sel.ID, sel.Channel)
	} else {
		p.printf("Resolved latest build: %d (%s)\n", sel.ID, sel.Channel)
	}

	p.logger.WithFields(logrus.Fields{
		"project": project,
		"version": version,
		"build":   sel.ID,
		"channel": sel.Channel,
		"file":    desc.Name,
	}).Info("Resolved artifact")

	return &Resolution{Project: project, Version: version, Build: sel, Descriptor: desc}, nil
}

// Run resolves, downloads and verifies one artifact. A skipped verification is
// reported in Result.Warning and does not fail the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res, err := p.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	desc := res.Descriptor

	p.printf("Downloading %s (%d bytes)\n", desc.Name, desc.Size)
	dl, err := p.downloader.Download(ctx, desc)
	if err != nil {
		return nil, err
	}

	result := &Result{Resolution: *res, Path: dl.Path, Written: dl.Written}

	if !p.verifyEnabled {
		p.printf("Checksum verification disabled\n")
		p.logger.Warn("Checksum verification disabled by configuration")
		return result, nil
	}

	vr, err := p.verifier.Verify(dl.Path, desc)
	result.Verification = vr
	switch {
	case errdefs.IsToolingMissing(err):
		result.Warning = err
		p.printf("WARNING: checksum verification skipped: %v\n", err)
		return result, nil
	case err != nil:
		return result, err
	}

	p.printf("Checksum verified (%s %s...)\n", vr.Algorithm, prefix(vr.Actual, checksumPrefixLen))
	p.printf("Saved %s\n", dl.Path)
	return result, nil
}

func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
