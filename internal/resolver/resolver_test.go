package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjects struct {
	info  *fill.ProjectInfo
	err   error
	calls int
}

func (f *fakeProjects) GetProject(ctx context.Context, project fill.Project) (*fill.ProjectInfo, error) {
	f.calls++
	return f.info, f.err
}

func projectInfo(groups map[string][]string) *fill.ProjectInfo {
	info := &fill.ProjectInfo{Versions: groups}
	info.Project.ID = "paper"
	return info
}

func TestCompareGroupKeys(t *testing.T) {
	assert.Equal(t, 1, CompareGroupKeys("1.10", "1.9"))
	assert.Equal(t, -1, CompareGroupKeys("1.9", "1.10"))
	assert.Equal(t, 1, CompareGroupKeys("2", "1.21"))
	assert.Equal(t, 0, CompareGroupKeys("1.21", "1.21"))
	assert.Equal(t, 1, CompareGroupKeys("1.x", "1.21"))
	assert.Equal(t, 1, CompareGroupKeys("1.21.1.1", "1.21.1"))
	assert.Equal(t, -1, CompareGroupKeys("1", "1.0"))

	keys := []string{"1.8", "1.10", "snapshot", "1.9", "1.21"}
	SortGroupKeys(keys)
	assert.Equal(t, []string{"snapshot", "1.21", "1.10", "1.9", "1.8"}, keys)
}

func TestCompareGroupKeysSemverTies(t *testing.T) {
	// Equal as semantic versions; the longer spelling ranks higher.
	assert.Equal(t, -1, CompareGroupKeys("1.21", "1.21.0"))
	assert.Equal(t, -1, CompareGroupKeys("1.21.0", "1.21.00"))
	assert.Equal(t, 1, CompareGroupKeys("1.21.00", "1.21"))
	assert.Equal(t, 1, CompareGroupKeys("1.21.0", "01.21"))
	assert.Equal(t, 1, CompareGroupKeys("1.010", "1.9"))

	keys := []string{"1.21", "1.21.00", "1.20.9", "1.21.0", "1.21.1"}
	SortGroupKeys(keys)
	assert.Equal(t, []string{"1.21.1", "1.21.00", "1.21.0", "1.21", "1.20.9"}, keys)
}

func TestResolveVersionExplicitSkipsIndex(t *testing.T) {
	api := &fakeProjects{err: errors.New("must not be called")}

	v, info, err := ResolveVersion(context.Background(), api, fill.ProjectPaper, "1.20.1")
	require.NoError(t, err)
	assert.Equal(t, "1.20.1", v)
	assert.Nil(t, info)
	assert.Zero(t, api.calls)
}

func TestResolveVersionNumericGroupOrder(t *testing.T) {
	api := &fakeProjects{info: projectInfo(map[string][]string{
		"1.9":  {"1.9.4", "1.9.2"},
		"1.10": {"1.10.2", "1.10.1"},
		"1.8":  {"1.8.8"},
	})}

	v, info, err := ResolveVersion(context.Background(), api, fill.ProjectPaper, "")
	require.NoError(t, err)
	assert.Equal(t, "1.10.2", v)
	assert.NotNil(t, info)
	assert.Equal(t, 1, api.calls)
}

func TestResolveVersionEmptyGroups(t *testing.T) {
	api := &fakeProjects{info: projectInfo(map[string][]string{})}

	_, _, err := ResolveVersion(context.Background(), api, fill.ProjectFolia, "")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
	assert.Contains(t, err.Error(), "folia")
}

func TestResolveVersionEmptyNewestGroupListsGroups(t *testing.T) {
	api := &fakeProjects{info: projectInfo(map[string][]string{
		"1.21": {},
		"1.20": {"1.20.6"},
	})}

	_, info, err := ResolveVersion(context.Background(), api, fill.ProjectPaper, "")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
	assert.Contains(t, err.Error(), "1.21, 1.20")
	assert.NotNil(t, info)
}

func TestResolveVersionPropagatesNetworkError(t *testing.T) {
	api := &fakeProjects{err: errdefs.Networkf("fetch project", errors.New("refused"), "request failed")}

	_, _, err := ResolveVersion(context.Background(), api, fill.ProjectPaper, "")
	require.Error(t, err)
	assert.True(t, errdefs.IsNetwork(err))
}

func TestResolveBuildPrefersNewestStable(t *testing.T) {
	builds := fill.BuildList{
		{ID: 1, Channel: fill.ChannelStable},
		{ID: 2, Channel: fill.ChannelExperimental},
		{ID: 3, Channel: fill.ChannelStable},
	}

	sel, err := ResolveBuild("1.21.4", builds, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, sel.ID)
	assert.Equal(t, fill.ChannelStable, sel.Channel)
	assert.False(t, sel.Explicit)
}

func TestResolveBuildIgnoresListOrder(t *testing.T) {
	builds := fill.BuildList{
		{ID: 3, Channel: fill.ChannelStable},
		{ID: 4, Channel: fill.ChannelExperimental},
		{ID: 1, Channel: fill.ChannelStable},
	}

	sel, err := ResolveBuild("1.21.4", builds, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, sel.ID)
}

func TestResolveBuildFallsBackToExperimental(t *testing.T) {
	sel, err := ResolveBuild("1.21.5", fill.BuildList{{ID: 5, Channel: fill.ChannelExperimental}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, sel.ID)
	assert.Equal(t, fill.ChannelExperimental, sel.Channel)
}

func TestResolveBuildExplicit(t *testing.T) {
	builds := fill.BuildList{{ID: 7, Channel: fill.ChannelExperimental}}

	sel, err := ResolveBuild("1.21.5", builds, 7)
	require.NoError(t, err)
	assert.Equal(t, BuildSelection{ID: 7, Channel: fill.ChannelExperimental, Explicit: true}, sel)

	sel, err = ResolveBuild("1.21.5", builds, 99)
	require.NoError(t, err)
	assert.Equal(t, 99, sel.ID)
	assert.Empty(t, sel.Channel)
}

func TestResolveBuildEmptyList(t *testing.T) {
	_, err := ResolveBuild("1.21.9", nil, 0)
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
	assert.Contains(t, err.Error(), "1.21.9")
}

func TestExtractDescriptor(t *testing.T) {
	want := fill.DownloadDescriptor{
		Name:      "paper-1.21.4-3.jar",
		URL:       "https://dl.example.test/paper-1.21.4-3.jar",
		Size:      42,
		Checksums: map[string]string{"sha256": "deadbeef"},
	}
	builds := fill.BuildList{
		{ID: 3, Channel: fill.ChannelStable, Downloads: map[string]fill.DownloadDescriptor{fill.DefaultArtifact: want}},
	}

	got, build, err := ExtractDescriptor("1.21.4", builds, 3, "")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 3, build.ID)
}

func TestExtractDescriptorMissingBuildListsAlternatives(t *testing.T) {
	builds := fill.BuildList{
		{ID: 12, Channel: fill.ChannelStable},
		{ID: 10, Channel: fill.ChannelExperimental},
	}

	_, _, err := ExtractDescriptor("1.21.4", builds, 11, fill.DefaultArtifact)
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
	assert.Contains(t, err.Error(), "10 (EXPERIMENTAL), 12 (STABLE)")
}

func TestExtractDescriptorMissingArtifact(t *testing.T) {
	builds := fill.BuildList{{
		ID:      4,
		Channel: fill.ChannelStable,
		Downloads: map[string]fill.DownloadDescriptor{
			"server:mojmap": {Name: "x.jar", URL: "https://dl.example.test/x.jar"},
		},
	}}

	_, _, err := ExtractDescriptor("1.21.4", builds, 4, fill.DefaultArtifact)
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
	assert.Contains(t, err.Error(), "server:mojmap")
	assert.Contains(t, err.Error(), "4 (STABLE)")
}
