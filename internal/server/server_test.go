package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

// writeSiteFixture lays out a minimal working site under root.
func writeSiteFixture(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "templates"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", "base.html"),
		[]byte("<html><head><title>{{.Site.Title}}</title></head><body>{{.Content}}</body></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "index.md"),
		[]byte("---\ntemplate: base\ntitle: Home\n---\n# Welcome\n\nfirst version\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "style.css"),
		[]byte("body { margin: 0 }"), 0o644))
}

// startServer runs Start in the background and waits for the listener.
func startServer(t *testing.T, cfg *config.Config, root string, opts Options) (*Server, context.CancelFunc, chan error) {
	t.Helper()
	s, err := New(cfg, root, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	waitFor(t, 5*time.Second, func() bool { return s.Addr() != "" })
	return s, cancel, errCh
}

func stopServer(t *testing.T, s *Server, cancel context.CancelFunc, errCh chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, s.Stop(stopCtx))
}

func httpGet(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func statusSnapshot(t *testing.T, base string) StatusSnapshot {
	t.Helper()
	code, body := httpGet(t, base+"/api/status")
	require.Equal(t, http.StatusOK, code)
	var snap StatusSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	return snap
}

func TestServerServesAndRebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	writeSiteFixture(t, root)

	cfg := config.Default()
	cfg.Server.Port = 0 // ephemeral
	cfg.Server.Debounce = "50ms"

	s, cancel, errCh := startServer(t, cfg, root, Options{})
	base := fmt.Sprintf("http://%s", s.Addr())

	code, body := httpGet(t, base+"/")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "first version")
	assert.Contains(t, body, reloadScriptTag)

	snap := statusSnapshot(t, base)
	require.Equal(t, "ok", snap.Status)
	require.Equal(t, 1, snap.Builds)

	// Edit a page and wait for the rebuild to land.
	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "index.md"),
		[]byte("---\ntemplate: base\ntitle: Home\n---\n# Welcome\n\nsecond version\n"), 0o644))
	waitFor(t, 10*time.Second, func() bool {
		return statusSnapshot(t, base).Builds >= 2
	})

	waitFor(t, 5*time.Second, func() bool {
		code, body := httpGet(t, base+"/")
		return code == http.StatusOK && strings.Contains(body, "second version")
	})

	stopServer(t, s, cancel, errCh)
}

func TestServerRecoversFromBrokenBuild(t *testing.T) {
	root := t.TempDir()
	writeSiteFixture(t, root)
	// Break the shell template before startup.
	tmpl := filepath.Join(root, "templates", "base.html")
	require.NoError(t, os.WriteFile(tmpl, []byte("<html>{{.Unclosed</html>"), 0o644))

	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.Debounce = "50ms"

	s, cancel, errCh := startServer(t, cfg, root, Options{})
	base := fmt.Sprintf("http://%s", s.Addr())

	code, body := httpGet(t, base+"/")
	require.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "Site Rebuilding")

	snap := statusSnapshot(t, base)
	require.Equal(t, "failed", snap.Status)
	require.NotEmpty(t, snap.LastError)

	// Fixing the template must trigger a rebuild that unblocks serving.
	require.NoError(t, os.WriteFile(tmpl,
		[]byte("<html><body>{{.Content}}</body></html>"), 0o644))
	waitFor(t, 10*time.Second, func() bool {
		return statusSnapshot(t, base).Status == "ok"
	})

	code, body = httpGet(t, base+"/")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "first version")

	stopServer(t, s, cancel, errCh)
}

func TestServerSkipInitialBuildServesExistingOutput(t *testing.T) {
	root := t.TempDir()
	writeSiteFixture(t, root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "public"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "public", "index.html"),
		[]byte("<html><body>prebuilt</body></html>"), 0o644))

	cfg := config.Default()
	cfg.Server.Port = 0

	s, cancel, errCh := startServer(t, cfg, root, Options{SkipInitialBuild: true})
	base := fmt.Sprintf("http://%s", s.Addr())

	code, body := httpGet(t, base+"/")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "prebuilt")

	// No build has run.
	assert.Equal(t, 0, statusSnapshot(t, base).Builds)

	stopServer(t, s, cancel, errCh)
}

func TestServerPollFallbackTriggersRebuilds(t *testing.T) {
	root := t.TempDir()
	writeSiteFixture(t, root)

	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.PollInterval = "100ms"

	s, cancel, errCh := startServer(t, cfg, root, Options{})
	base := fmt.Sprintf("http://%s", s.Addr())

	// No file changes at all; polling alone must drive further builds.
	waitFor(t, 10*time.Second, func() bool {
		return statusSnapshot(t, base).Builds >= 3
	})

	stopServer(t, s, cancel, errCh)
}

func TestServerListenFailure(t *testing.T) {
	root := t.TempDir()
	writeSiteFixture(t, root)

	cfg := config.Default()
	cfg.Server.Port = 0

	s1, cancel1, errCh1 := startServer(t, cfg, root, Options{})
	defer stopServer(t, s1, cancel1, errCh1)

	// Second server on the same port must fail with a server error.
	_, port, ok := strings.Cut(s1.Addr(), ":")
	require.True(t, ok)
	cfg2 := config.Default()
	cfg2.Server.Port = atoiOrFail(t, port)

	s2, err := New(cfg2, root, Options{SkipInitialBuild: true})
	require.NoError(t, err)
	startErr := s2.Start(t.Context())
	require.Error(t, startErr)
	_ = s2.hist.Close()
}

func atoiOrFail(t *testing.T, s string) int {
	t.Helper()
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	require.NoError(t, err)
	return n
}
