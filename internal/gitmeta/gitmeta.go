// Package gitmeta extracts per-file authorship metadata from the site
// source's git history, feeding last-modified stamps into builds.
package gitmeta

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
)

// FileMeta is the history-derived metadata for one source file.
type FileMeta struct {
	LastModified time.Time
	LastAuthor   string
	CommitHash   string
}

// Source reads file metadata from a git repository containing the site.
type Source struct {
	repo *gogit.Repository
	// prefix maps site-relative paths to repo-relative paths when the
	// site root is a subdirectory of the repository.
	prefix string
}

// Open locates the repository enclosing siteRoot. A site outside any
// repository yields ErrNoRepository.
func Open(siteRoot string) (*Source, error) {
	abs, err := filepath.Abs(siteRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve site root: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, ErrNoRepository
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	prefix := ""
	if wt, err := repo.Worktree(); err == nil {
		if rel, err := filepath.Rel(wt.Filesystem.Root(), abs); err == nil && rel != "." {
			prefix = filepath.ToSlash(rel)
		}
	}
	return &Source{repo: repo, prefix: prefix}, nil
}

// ErrNoRepository indicates the site root is not inside a git repository.
var ErrNoRepository = errors.New("gitmeta: site is not inside a git repository")

// Lookup returns metadata for a slash-separated site-relative path.
// Untracked files yield a zero FileMeta and no error.
func (s *Source) Lookup(path string) (FileMeta, error) {
	target := path
	if s.prefix != "" {
		target = s.prefix + "/" + path
	}

	iter, err := s.repo.Log(&gogit.LogOptions{FileName: &target})
	if err != nil {
		return FileMeta{}, fmt.Errorf("log %q: %w", target, err)
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		// No history for the path; treat as untracked.
		return FileMeta{}, nil
	}
	return FileMeta{
		LastModified: commit.Author.When,
		LastAuthor:   commit.Author.Name,
		CommitHash:   commit.Hash.String(),
	}, nil
}

// Head returns the current HEAD commit hash, or "" when unborn.
func (s *Source) Head() string {
	ref, err := s.repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}

// Dirty reports whether the worktree has uncommitted changes under the
// site root.
func (s *Source) Dirty() (bool, error) {
	wt, err := s.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("status: %w", err)
	}
	for p, st := range status {
		if s.prefix != "" && !strings.HasPrefix(p, s.prefix+"/") {
			continue
		}
		if st.Worktree != gogit.Unmodified || st.Staging != gogit.Unmodified {
			return true, nil
		}
	}
	return false, nil
}
