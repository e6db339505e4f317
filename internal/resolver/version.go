package resolver

import (
	"context"
	"strings"

	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
)

// ProjectFetcher fetches project metadata.
type ProjectFetcher interface {
	GetProject(ctx context.Context, project fill.Project) (*fill.ProjectInfo, error)
}

// ResolveVersion returns version unchanged when set; otherwise it fetches the
// project metadata and returns the newest version of the newest group. The
// fetched metadata is returned when available so callers can list alternatives.
func ResolveVersion(ctx context.Context, api ProjectFetcher, project fill.Project, version string) (string, *fill.ProjectInfo, error) {
	if version != "" {
		return version, nil, nil
	}

	info, err := api.GetProject(ctx, project)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", nil, errdefs.NotFoundf("resolve version", "project %s not found in index: %v", project, err)
		}
		return "", nil, err
	}

	latest, err := LatestVersion(project, info)
	if err != nil {
		return "", info, err
	}
	return latest, info, nil
}

// LatestVersion picks the first version of the numerically greatest group.
func LatestVersion(project fill.Project, info *fill.ProjectInfo) (string, error) {
	if info == nil || len(info.Versions) == 0 {
		return "", errdefs.NotFoundf("resolve version", "no version groups published for project %s", project)
	}

	keys := info.GroupKeys()
	SortGroupKeys(keys)

	newest := keys[0]
	versions := info.Versions[newest]
	if len(versions) == 0 || versions[0] == "" {
		return "", errdefs.NotFoundf("resolve version",
			"version group %s of project %s is empty (available groups: %s)",
			newest, project, strings.Join(keys, ", "))
	}
	return versions[0], nil
}
