package fill

import "time"

// Channels reported by the index.
const (
	ChannelStable       = "STABLE"
	ChannelExperimental = "EXPERIMENTAL"
)

// DefaultArtifact is the download key of a build's server jar.
const DefaultArtifact = "server:default"

// ProjectInfo is the project metadata response.
type ProjectInfo struct {
	Project struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"project"`
	// Versions maps a version group key (e.g. "1.21") to its versions, newest first.
	Versions map[string][]string `json:"versions"`
}

// GroupKeys returns the version group keys in no particular order.
func (p *ProjectInfo) GroupKeys() []string {
	keys := make([]string, 0, len(p.Versions))
	for k := range p.Versions {
		keys = append(keys, k)
	}
	return keys
}

// Build is one published compilation of a project version.
type Build struct {
	ID        int                           `json:"id"`
	Time      time.Time                     `json:"time"`
	Channel   string                        `json:"channel"`
	Commits   []Commit                      `json:"commits,omitempty"`
	Downloads map[string]DownloadDescriptor `json:"downloads"`
}

// Commit is one source change included in a build.
type Commit struct {
	SHA     string    `json:"sha"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// BuildList is the build list response for one version.
type BuildList []Build

// Find returns the build with the given id.
func (l BuildList) Find(id int) (Build, bool) {
	for _, b := range l {
		if b.ID == id {
			return b, true
		}
	}
	return Build{}, false
}

// DownloadDescriptor describes one downloadable artifact of a build.
type DownloadDescriptor struct {
	Name      string            `json:"name" yaml:"name"`
	URL       string            `json:"url" yaml:"url"`
	Size      int64             `json:"size" yaml:"size"`
	Checksums map[string]string `json:"checksums" yaml:"checksums"`
}

// Checksum returns the hex digest published for algo, if any.
func (d DownloadDescriptor) Checksum(algo string) (string, bool) {
	sum, ok := d.Checksums[algo]
	return sum, ok && sum != ""
}

// apiError is the body the index returns alongside non-2xx statuses.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
