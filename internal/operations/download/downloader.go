package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ProgressFunc receives the bytes written so far and the expected total
// (zero or less when unknown).
type ProgressFunc func(written, total int64)

// Result describes a finished download.
type Result struct {
	Path    string
	Written int64
}

type Option func(*Downloader)

func WithHTTPClient(h fill.HTTPClient) Option {
	return func(d *Downloader) {
		if h != nil {
			d.httpClient = h
		}
	}
}

// WithFs replaces the filesystem the artifact is written to.
func WithFs(fs afero.Fs) Option {
	return func(d *Downloader) {
		if fs != nil {
			d.fs = fs
		}
	}
}

func WithDir(dir string) Option {
	return func(d *Downloader) {
		if dir != "" {
			d.dir = dir
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(d *Downloader) { d.userAgent = ua }
}

func WithProgress(fn ProgressFunc) Option {
	return func(d *Downloader) { d.progress = fn }
}

func WithLogger(l *logrus.Entry) Option {
	return func(d *Downloader) {
		if l != nil {
			d.logger = l
		}
	}
}

// Downloader streams artifacts to local storage.
type Downloader struct {
	httpClient fill.HTTPClient
	fs         afero.Fs
	dir        string
	userAgent  string
	progress   ProgressFunc
	logger     *logrus.Entry
}

func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: http.DefaultClient,
		fs:         afero.NewOsFs(),
		dir:        ".",
		logger:     logrus.WithField("component", "downloader"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path returns where the artifact described by desc is stored.
func (d *Downloader) Path(desc fill.DownloadDescriptor) (string, error) {
	name := filepath.Base(filepath.Clean("/" + desc.Name))
	if name == "/" || name == "." || name == "" {
		return "", errdefs.Validationf("download", "artifact name %q is not a valid file name", desc.Name)
	}
	return filepath.Join(d.dir, name), nil
}

// Download fetches desc.URL into the target directory under desc.Name. An
// existing file is truncated, and a partial file is left behind on failure.
func (d *Downloader) Download(ctx context.Context, desc fill.DownloadDescriptor) (*Result, error) {
	path, err := d.Path(desc)
	if err != nil {
		return nil, err
	}

	logger := d.logger.WithFields(logrus.Fields{
		"url":  desc.URL,
		"dest": path,
	})
	logger.Info("Starting artifact download")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.URL, nil)
	if err != nil {
		return nil, errdefs.Networkf("download", err, "failed to create request for %s", desc.URL)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Error("Failed to download artifact")
		return nil, errdefs.Networkf("download", err, "request to %s failed", desc.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errdefs.Networkf("download", nil, "%s returned status %d", desc.URL, resp.StatusCode)
	}

	if err := d.fs.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", d.dir, err)
	}
	file, err := d.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	total := desc.Size
	if total <= 0 {
		total = resp.ContentLength
	}
	var onChunk func(int64)
	if d.progress != nil {
		d.progress(0, total)
		onChunk = func(written int64) { d.progress(written, total) }
	}

	written, err := copyWithContext(ctx, file, resp.Body, onChunk)
	if err != nil {
		var we *writeError
		if errors.As(err, &we) {
			return nil, fmt.Errorf("failed to write %s: %w", path, we.err)
		}
		return nil, errdefs.Networkf("download", err, "transfer from %s interrupted after %d bytes", desc.URL, written)
	}
	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync %s: %w", path, err)
	}

	if desc.Size > 0 && written != desc.Size {
		logger.WithFields(logrus.Fields{
			"expected": desc.Size,
			"written":  written,
		}).Warn("Downloaded size differs from descriptor")
	}

	logger.WithField("bytes", written).Info("Artifact download completed")
	return &Result{Path: path, Written: written}, nil
}
