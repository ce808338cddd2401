package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/liangyou/mcvm/internal/region"
	"github.com/liangyou/mcvm/internal/remote"
	"github.com/liangyou/mcvm/pkg/models"
)

// newFixtureRegistry 启动一个按 testdata 返回清单的服务器，并创建指向它的注册表。
func newFixtureRegistry(t *testing.T) (*Registry, string) {
	t.Helper()

	routes := map[string]string{
		"/mc/game/version_manifest_v2.json": "version_manifest_v2.json",
		"/v1/packages/bbb/1.21.1.json":      "1.21.1.json",
		"/fabric/versions/game":             "fabric_game.json",
		"/fabric/versions/loader/1.21.1":    "fabric_loader.json",
		"/fabric/versions/installer":        "fabric_installer.json",
		"/quilt/versions/game":              "fabric_game.json",
		"/quilt/versions/loader/1.21.1":     "quilt_loader.json",
		"/quilt/versions/installer":         "quilt_installer.json",
		"/neoforge/maven-metadata.xml":      "neoforge-metadata.xml",
		"/liteloader/versions.json":         "liteloader_versions.json",
	}

	var base string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		data, err := os.ReadFile(filepath.Join("testdata", name))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(strings.ReplaceAll(string(data), "{{BASE}}", base)))
	}))
	t.Cleanup(server.Close)
	base = server.URL

	mirror := region.Mirror{
		Name:               "fixture",
		VanillaManifest:    base + "/mc/game/version_manifest_v2.json",
		FabricMeta:         base + "/fabric",
		QuiltMeta:          base + "/quilt",
		NeoForgeMaven:      base + "/neoforge",
		LiteLoaderVersions: base + "/liteloader/versions.json",
		LiteLoaderJenkins:  "http://jenkins.liteloader.com/job/",
	}
	client := remote.NewClient(remote.WithHTTPClient(server.Client()))
	return NewRegistry(client, mirror), base
}

func entryIDs(list []models.Entry) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	slices.Sort(out)
	return out
}

func mustSource(t *testing.T, r *Registry, name string) Source {
	t.Helper()
	s, err := r.Get(name)
	require.NoError(t, err)
	return s
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r, _ := newFixtureRegistry(t)
	require.Equal(t, []string{"vanilla", "fabric", "quilt", "neoforge", "liteloader"}, r.Names())
	require.Len(t, r.All(), 5)

	s, err := r.Get(" Fabric ")
	require.NoError(t, err)
	require.Equal(t, "fabric", s.Name())

	_, err = r.Get("forge")
	require.True(t, errors.Is(err, ErrUnknownSource))
}

func TestVanilla(t *testing.T) {
	t.Parallel()

	r, base := newFixtureRegistry(t)
	v := mustSource(t, r, "vanilla")
	ctx := context.Background()

	games, err := v.GameVersions(ctx)
	require.NoError(t, err)
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	require.Equal(t, []string{
		"1.21.4", "24w46a", "24w33a", "1.21.1", "1.9",
		"b1.7.3", "a1.2.6", "c0.30_01c", "inf-20100618", "rd-132211",
	}, ids)
	require.True(t, v.(Ordered).UpstreamOrder())
	for _, g := range games {
		require.Equal(t, g.Kind == "release", g.Stable, g.ID)
	}

	variants, err := v.Variants(ctx, "1.21.1")
	require.NoError(t, err)
	require.Len(t, variants, 3)
	require.Equal(t, "client", variants[0].ID)
	require.Equal(t, "server", variants[1].ID)
	require.Equal(t, "client_mappings", variants[2].ID)
	require.Equal(t, "server-sha", variants[1].Checksum)

	details, err := v.Details(ctx, "1.21.1", models.Entry{})
	require.NoError(t, err)
	require.Contains(t, details.Lines, "Main Class: net.minecraft.client.main.Main")
	require.Contains(t, details.Lines, "Compliance Level: 1")
	require.Contains(t, details.Technical, "AssetIndex SHA1: asset-sha")
	require.Contains(t, details.Technical, "Libraries Count: 3")
	require.Len(t, details.Artifacts, 3)

	installer, err := v.ResolveInstaller(ctx, "1.21.1", models.Entry{ID: "server"})
	require.NoError(t, err)
	require.Equal(t, base+"/v1/objects/server-sha/server.jar", installer.URL)
	require.Equal(t, "server.jar", installer.FileName)
	require.Equal(t, "sha1", installer.ChecksumType)
	require.EqualValues(t, 51627615, installer.Size)

	client, err := v.ResolveInstaller(ctx, "1.21.1", models.Entry{})
	require.NoError(t, err)
	require.Equal(t, "client", client.Name)

	_, err = v.ResolveInstaller(ctx, "1.21.1", models.Entry{ID: "server_mappings"})
	require.True(t, errors.Is(err, ErrNoInstaller))

	_, err = v.Variants(ctx, "0.0.1")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestFabric(t *testing.T) {
	t.Parallel()

	r, _ := newFixtureRegistry(t)
	f := mustSource(t, r, "fabric")
	ctx := context.Background()

	games, err := f.GameVersions(ctx)
	require.NoError(t, err)
	require.Len(t, games, 3)
	require.True(t, f.(Ordered).UpstreamOrder())

	variants, err := f.Variants(ctx, "1.21.1")
	require.NoError(t, err)
	require.Equal(t, []string{"0.16.1-beta.1", "0.16.2"}, entryIDs(variants))
	for _, v := range variants {
		require.Equal(t, v.ID == "0.16.2", v.Stable)
		require.Equal(t, "net.fabricmc:intermediary:1.21.1", v.Extra["intermediary"])
	}

	installer, err := f.ResolveInstaller(ctx, "1.21.1", variants[0])
	require.NoError(t, err)
	require.Equal(t, "1.0.1", installer.Version)
	require.Equal(t, "fabric-installer-1.0.1.jar", installer.FileName)
	require.Empty(t, installer.Note)

	details, err := f.Details(ctx, "1.21.1", variants[0])
	require.NoError(t, err)
	require.Contains(t, details.Lines, "Minecraft Version: 1.21.1")
	require.Len(t, details.Artifacts, 1)

	_, err = f.Variants(ctx, "1.0")
	require.Error(t, err)
}

func TestQuilt(t *testing.T) {
	t.Parallel()

	r, _ := newFixtureRegistry(t)
	q := mustSource(t, r, "quilt")
	ctx := context.Background()
	require.False(t, q.(Ordered).UpstreamOrder())

	games, err := q.GameVersions(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"1.20.6", "1.21.1"}, entryIDs(games))

	variants, err := q.Variants(ctx, "1.21.1")
	require.NoError(t, err)
	require.Equal(t, []string{"0.26.3", "0.26.4-beta.1"}, entryIDs(variants))
	for _, v := range variants {
		// 没有 stable 字段的 loader 一律显示为不稳定，即使版本号不带预发布标记。
		require.False(t, v.Stable, v.ID)
		require.Equal(t, "unstable", v.Kind, v.ID)
		require.NotEmpty(t, v.Extra["hashed"])
	}

	installer, err := q.ResolveInstaller(ctx, "1.21.1", variants[0])
	require.NoError(t, err)
	require.Equal(t, "0.10.0", installer.Version)
	require.False(t, installer.Stable)
	require.Contains(t, installer.Note, "No stable installer found")

	details, err := q.Details(ctx, "1.21.1", variants[0])
	require.NoError(t, err)
	require.Contains(t, details.Lines, installer.Note)
}

func TestNeoForge(t *testing.T) {
	t.Parallel()

	r, base := newFixtureRegistry(t)
	n := mustSource(t, r, "neoforge")
	ctx := context.Background()

	games, err := n.GameVersions(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"1.20.2", "1.20.4", "1.21", "1.21.1", "25w14craftmine"}, entryIDs(games))
	for _, g := range games {
		switch g.ID {
		case "1.20.2", "1.21", "25w14craftmine":
			require.False(t, g.Stable, g.ID)
		default:
			require.True(t, g.Stable, g.ID)
		}
	}

	variants, err := n.Variants(ctx, "1.21.1")
	require.NoError(t, err)
	require.Equal(t, []string{"21.1.77", "21.1.9"}, entryIDs(variants))

	installer, err := n.ResolveInstaller(ctx, "1.21.1", variants[0])
	require.NoError(t, err)
	require.Equal(t, base+"/neoforge/"+variants[0].ID+"/neoforge-"+variants[0].ID+"-installer.jar", installer.URL)

	details, err := n.Details(ctx, "1.21", models.Entry{ID: "21.0.0-beta", Version: "21.0.0-beta"})
	require.NoError(t, err)
	require.Contains(t, details.Lines, "Stability: Experimental")

	_, err = n.Variants(ctx, "1.16.5")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestNeoForgeGame(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"21.1.77":                 "1.21.1",
		"21.0.0-beta":             "1.21",
		"20.2.3-beta":             "1.20.2",
		"1.20.1-47.1.7":           "1.20.1",
		"0.25w14craftmine.3-beta": "25w14craftmine",
		"garbage":                 "",
	}
	for in, want := range cases {
		require.Equal(t, want, neoForgeGame(in), in)
	}
}

func TestLiteLoader(t *testing.T) {
	t.Parallel()

	r, _ := newFixtureRegistry(t)
	l := mustSource(t, r, "liteloader")
	ctx := context.Background()

	games, err := l.GameVersions(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"1.11.2", "1.12.2"}, entryIDs(games))

	variants, err := l.Variants(ctx, "1.12.2")
	require.NoError(t, err)
	require.Equal(t, []string{"1.12.2-00-SNAPSHOT", "1.12.2-SNAPSHOT"}, entryIDs(variants))

	var release models.Entry
	for _, v := range variants {
		if v.ID == "1.12.2-SNAPSHOT" {
			release = v
		}
	}
	require.True(t, release.Stable)
	require.Equal(t, "md5", release.ChecksumType)
	require.Equal(t, "1420785ecbfed5aff4a586c5c9dd97eb", release.Checksum)
	require.Equal(t,
		"http://repo.mumfrey.com/content/repositories/snapshots/com/mumfrey/liteloader/1.12.2-SNAPSHOT/liteloader-1.12.2-SNAPSHOT.jar",
		release.DownloadURL)

	installer, err := l.ResolveInstaller(ctx, "1.12.2", release)
	require.NoError(t, err)
	require.Equal(t,
		"http://jenkins.liteloader.com/job/LiteLoaderInstaller%201.12.2/lastSuccessfulBuild/artifact/build/libs/liteloader-installer-1.12.2-00-SNAPSHOT.jar",
		installer.URL)
	require.Equal(t, "liteloader-installer-1.12.2-00-SNAPSHOT.jar", installer.FileName)

	details, err := l.Details(ctx, "1.12.2", release)
	require.NoError(t, err)
	require.Len(t, details.Artifacts, 2)
	require.Equal(t, "md5", details.Artifacts[1].ChecksumType)
	require.Contains(t, details.Technical, "Tweak Class: com.mumfrey.liteloader.launch.LiteLoaderTweaker")
}

func TestBaseName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "server.jar", baseName("https://example.com/a/server.jar?x=1"))
	require.Equal(t, "", baseName(""))
}
