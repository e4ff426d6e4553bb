// Package assets copies static files (CSS, images, downloads) verbatim into
// the output tree, preserving relative paths, byte content, and file modes.
package assets

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Copy mirrors every regular file under srcDir into dstDir and returns the
// number of files copied.
//
// A missing assets directory is not an error; sites without static assets
// simply skip the step. Any read or write failure aborts immediately.
func Copy(srcDir, dstDir string) (int, error) {
	info, err := os.Stat(srcDir)
	if os.IsNotExist(err) {
		slog.Debug("no assets directory, skipping", logfields.Dir(srcDir))
		return 0, nil
	}
	if err != nil {
		return 0, errors.ReadFailed(srcDir, err)
	}
	if !info.IsDir() {
		return 0, errors.SourceDirMissing("assets", srcDir)
	}

	copied := 0
	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.ReadFailed(path, err)
		}

		rel, relErr := filepath.Rel(srcDir, path)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dstDir, rel)

		if d.IsDir() {
			dirInfo, infoErr := d.Info()
			if infoErr != nil {
				return errors.ReadFailed(path, infoErr)
			}
			if mkErr := os.MkdirAll(target, dirInfo.Mode().Perm()); mkErr != nil {
				return errors.WriteFailed(target, mkErr)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			slog.Debug("skipping non-regular file", logfields.Path(path))
			return nil
		}

		if copyErr := copyFile(path, target); copyErr != nil {
			return copyErr
		}
		copied++
		return nil
	})
	if walkErr != nil {
		return copied, walkErr
	}

	return copied, nil
}

// copyFile copies one file and carries the source permissions over.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.ReadFailed(src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return errors.WriteFailed(dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.CopyFailed(src, dst, err)
	}
	if err := out.Close(); err != nil {
		return errors.WriteFailed(dst, err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return errors.ReadFailed(src, err)
	}
	if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return errors.WriteFailed(dst, err)
	}
	return nil
}
