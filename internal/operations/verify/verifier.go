package verify

import (
	"crypto"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DefaultAlgorithm is the checksum key the index publishes.
const DefaultAlgorithm = "sha256"

// Algorithms maps checksum keys to hash functions. A listed function may still
// be missing from the binary; Hash.Available decides.
var Algorithms = map[string]crypto.Hash{
	"sha1":        crypto.SHA1,
	"sha256":      crypto.SHA256,
	"sha512":      crypto.SHA512,
	"blake2b-256": crypto.BLAKE2b_256,
}

type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Result is the outcome of one verification.
type Result struct {
	Status    Status
	Algorithm string
	Expected  string
	Actual    string
	// Reason explains a skip.
	Reason string
}

type Option func(*Verifier)

func WithFs(fs afero.Fs) Option {
	return func(v *Verifier) {
		if fs != nil {
			v.fs = fs
		}
	}
}

// WithAlgorithm selects the checksum key; unknown names leave no hash available.
func WithAlgorithm(name string) Option {
	return func(v *Verifier) {
		if name != "" {
			v.algorithm = strings.ToLower(name)
		}
	}
}

// WithAllowUnverified downgrades a descriptor without a checksum from a
// NotFoundError to a skipped verification.
func WithAllowUnverified(allow bool) Option {
	return func(v *Verifier) { v.allowUnverified = allow }
}

func WithLogger(l *logrus.Entry) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// Verifier recomputes artifact digests.
type Verifier struct {
	fs              afero.Fs
	algorithm       string
	allowUnverified bool
	logger          *logrus.Entry
}

func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		fs:        afero.NewOsFs(),
		algorithm: DefaultAlgorithm,
		logger:    logrus.WithField("component", "verifier"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify hashes the file at path and compares it with the descriptor checksum.
//
// A mismatch returns an IntegrityError. When the hash function is not available
// the returned Result is skipped and the error is a ToolingMissingError, which
// callers treat as a warning. A descriptor without a checksum is a
// NotFoundError unless unverified artifacts are allowed, in which case it is
// skipped the same way.
func (v *Verifier) Verify(path string, desc fill.DownloadDescriptor) (*Result, error) {
	res := &Result{Algorithm: v.algorithm, Status: StatusSkipped}
	logger := v.logger.WithFields(logrus.Fields{
		"file":      path,
		"algorithm": v.algorithm,
	})

	hash, known := Algorithms[v.algorithm]
	if !known || !hash.Available() {
		res.Reason = fmt.Sprintf("%s hashing is not available in this build", v.algorithm)
		logger.Warn("Checksum verification skipped: hash function unavailable")
		return res, errdefs.ToolingMissingf("verify", "%s; %s was not verified", res.Reason, path)
	}

	expected, ok := desc.Checksum(v.algorithm)
	if !ok {
		res.Reason = fmt.Sprintf("descriptor publishes no %s checksum", v.algorithm)
		if !v.allowUnverified {
			logger.Error("No published checksum for artifact")
			return res, errdefs.NotFoundf("verify", "%s for %s (available: %s); allow unverified artifacts to keep it",
				res.Reason, desc.Name, describeChecksums(desc))
		}
		logger.Warn("Checksum verification skipped: no published checksum")
		return res, errdefs.ToolingMissingf("verify", "%s; %s was not verified", res.Reason, path)
	}
	res.Expected = strings.ToLower(strings.TrimSpace(expected))

	logger.WithField("expected", res.Expected).Debug("Verifying checksum")
	actual, err := v.digest(hash, path)
	if err != nil {
		return nil, err
	}
	res.Actual = actual

	if !strings.EqualFold(res.Actual, res.Expected) {
		res.Status = StatusFailed
		logger.WithFields(logrus.Fields{
			"expected": res.Expected,
			"actual":   res.Actual,
		}).Error("Checksum mismatch")
		return res, errdefs.Integrityf("verify", "%s checksum mismatch for %s: expected %s, got %s",
			v.algorithm, path, res.Expected, res.Actual)
	}

	res.Status = StatusPassed
	logger.Debug("Checksum verification successful")
	return res, nil
}

func describeChecksums(desc fill.DownloadDescriptor) string {
	var keys []string
	for k, sum := range desc.Checksums {
		if sum != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "none"
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func (v *Verifier) digest(hash crypto.Hash, path string) (string, error) {
	file, err := v.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for checksum: %w", err)
	}
	defer file.Close()

	h := hash.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
