package fill

import (
	"strings"

	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
)

// Project is a supported artifact family.
type Project string

const (
	ProjectPaper    Project = "paper"
	ProjectFolia    Project = "folia"
	ProjectVelocity Project = "velocity"
)

// Projects lists the supported projects; the first is the default.
var Projects = []Project{ProjectPaper, ProjectFolia, ProjectVelocity}

// DefaultProject is used when no project is given.
func DefaultProject() Project { return Projects[0] }

// ParseProject validates key against the supported projects. An empty key
// selects the default project.
func ParseProject(key string) (Project, error) {
	if key == "" {
		return DefaultProject(), nil
	}
	for _, p := range Projects {
		if string(p) == key {
			return p, nil
		}
	}
	names := make([]string, len(Projects))
	for i, p := range Projects {
		names[i] = string(p)
	}
	return "", errdefs.Validationf("parse project", "unsupported project %q (supported: %s)", key, strings.Join(names, ", "))
}
