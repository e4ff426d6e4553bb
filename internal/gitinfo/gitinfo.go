// Package gitinfo annotates pages with last-commit metadata from the git
// repository enclosing the pages directory.
package gitinfo

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/pages"
)

// Annotate fills GitInfo on every page that has at least one commit touching
// its source file.
//
// The repository is discovered upward from pagesDir, so a site rooted anywhere
// inside a working tree works. Asking for git metadata outside a repository is
// a configuration error; a page with no history yet (staged but never
// committed) is simply left unannotated.
func Annotate(ctx context.Context, pagesDir string, pgs []pages.Page) error {
	repo, err := git.PlainOpenWithOptions(pagesDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return errors.New(errors.CategoryConfig, errors.SeverityFatal,
				"git_info enabled but pages directory is not inside a git repository").
				WithContext("dir", pagesDir)
		}
		return errors.InternalError("open git repository", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errors.InternalError("resolve git worktree", err)
	}
	root := wt.Filesystem.Root()

	absPages, err := filepath.Abs(pagesDir)
	if err != nil {
		return errors.InternalError("resolve pages directory", err)
	}

	annotated := 0
	for i := range pgs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		abs := filepath.Join(absPages, filepath.FromSlash(pgs[i].SourcePath))
		rel, relErr := filepath.Rel(root, abs)
		if relErr != nil {
			continue
		}
		rel = filepath.ToSlash(rel)

		commit, found, logErr := lastCommit(repo, rel)
		if logErr != nil {
			return errors.InternalError("read git log", logErr)
		}
		if !found {
			slog.Debug("page has no commit history yet", logfields.Page(pgs[i].SourcePath))
			continue
		}

		pgs[i].GitInfo = &pages.GitInfo{
			CommitHash:   commit.Hash.String(),
			LastModified: commit.Committer.When,
			Author:       commit.Author.Name,
		}
		annotated++
	}

	slog.Debug("git metadata annotated", logfields.Pages(annotated))
	return nil
}

// lastCommit returns the most recent commit touching path (repo-relative,
// slash-separated).
func lastCommit(repo *git.Repository, path string) (*object.Commit, bool, error) {
	iter, err := repo.Log(&git.LogOptions{
		FileName: &path,
		Order:    git.LogOrderCommitterTime,
	})
	if err != nil {
		// A repository with no commits at all has no HEAD to log from.
		return nil, false, nil
	}
	defer iter.Close()

	commit, err := iter.Next()
	if stderrors.Is(err, io.EOF) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return commit, true, nil
}
