package resolver

import (
	"sort"
	"strings"

	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
)

// ExtractDescriptor looks up the artifact key in the downloads of build id.
func ExtractDescriptor(version string, builds fill.BuildList, id int, artifact string) (fill.DownloadDescriptor, fill.Build, error) {
	if artifact == "" {
		artifact = fill.DefaultArtifact
	}

	build, ok := builds.Find(id)
	if !ok {
		return fill.DownloadDescriptor{}, fill.Build{}, errdefs.NotFoundf("extract descriptor",
			"build %d not found for version %s (available builds: %s)", id, version, describeBuilds(builds))
	}

	desc, ok := build.Downloads[artifact]
	if !ok || desc.URL == "" {
		keys := make([]string, 0, len(build.Downloads))
		for k := range build.Downloads {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		available := strings.Join(keys, ", ")
		if available == "" {
			available = "none"
		}
		return fill.DownloadDescriptor{}, build, errdefs.NotFoundf("extract descriptor",
			"build %d of version %s has no %q artifact (artifacts: %s; available builds: %s)",
			id, version, artifact, available, describeBuilds(builds))
	}
	return desc, build, nil
}
