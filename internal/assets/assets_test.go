package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siteerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

func writeAsset(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func TestCopy_MirrorsTreeByteForByte(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	css := []byte("body { color: #333; }\n")
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00}
	writeAsset(t, src, "css/site.css", css)
	writeAsset(t, src, "img/logo.png", png)
	writeAsset(t, src, "robots.txt", []byte("User-agent: *\n"))

	n, err := Copy(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	gotCSS, err := os.ReadFile(filepath.Join(dst, "css", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, css, gotCSS)

	gotPNG, err := os.ReadFile(filepath.Join(dst, "img", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, png, gotPNG)
}

func TestCopy_PreservesFileMode(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	path := filepath.Join(src, "deploy.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	_, err := Copy(src, dst)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dst, "deploy.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestCopy_MissingSourceDirIsNotAnError(t *testing.T) {
	dst := t.TempDir()

	n, err := Copy(filepath.Join(t.TempDir(), "absent"), dst)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopy_SourceIsAFile_ReturnsConfigError(t *testing.T) {
	src := filepath.Join(t.TempDir(), "assets")
	require.NoError(t, os.WriteFile(src, []byte("not a dir"), 0o644))

	_, err := Copy(src, t.TempDir())
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryConfig))
}

func TestCopy_UnwritableDestination_ReturnsIOError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	src := t.TempDir()
	writeAsset(t, src, "a.txt", []byte("x"))

	dst := filepath.Join(t.TempDir(), "ro")
	require.NoError(t, os.MkdirAll(dst, 0o555))

	_, err := Copy(src, dst)
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryIO))
}

func TestCopy_EmptySourceTreeCopiesNothing(t *testing.T) {
	n, err := Copy(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, n)
}
