package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
)

// BuildSelection is the outcome of build resolution.
type BuildSelection struct {
	ID      int
	Channel string
	// Explicit is true when the caller asked for the build by id.
	Explicit bool
}

// ResolveBuild returns the requested build when set, otherwise the newest STABLE
// build, falling back to the newest build of any channel. A requested id of zero
// or less means "not set".
func ResolveBuild(version string, builds fill.BuildList, requested int) (BuildSelection, error) {
	if requested > 0 {
		sel := BuildSelection{ID: requested, Explicit: true}
		if b, ok := builds.Find(requested); ok {
			sel.Channel = b.Channel
		}
		return sel, nil
	}

	if len(builds) == 0 {
		return BuildSelection{}, errdefs.NotFoundf("resolve build",
			"no builds published for version %s; retry with an explicit version and build", version)
	}

	b := LatestBuild(builds)
	return BuildSelection{ID: b.ID, Channel: b.Channel}, nil
}

// LatestBuild returns the STABLE build with the highest id, or the highest id
// overall when no build is STABLE. builds must not be empty.
func LatestBuild(builds fill.BuildList) fill.Build {
	var stable, newest *fill.Build
	for i := range builds {
		b := &builds[i]
		if newest == nil || b.ID > newest.ID {
			newest = b
		}
		if strings.EqualFold(b.Channel, fill.ChannelStable) && (stable == nil || b.ID > stable.ID) {
			stable = b
		}
	}
	if stable != nil {
		return *stable
	}
	return *newest
}

// describeBuilds renders "id (channel)" for each build, ascending by id.
func describeBuilds(builds fill.BuildList) string {
	if len(builds) == 0 {
		return "none"
	}
	sorted := make(fill.BuildList, len(builds))
	copy(sorted, builds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	parts := make([]string, len(sorted))
	for i, b := range sorted {
		parts[i] = fmt.Sprintf("%d (%s)", b.ID, b.Channel)
	}
	return strings.Join(parts, ", ")
}
