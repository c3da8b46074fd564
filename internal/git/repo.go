package git

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	// AbbreviatedLength is the number of hex digits shown for short ids.
	AbbreviatedLength = 7
	// DefaultRenameScore is the similarity percentage above which a
	// delete/add pair is folded into a rename.
	DefaultRenameScore = 50

	// UncommittedChanges is the pseudo revision naming the working tree.
	UncommittedChanges = "uncommitted"
)

// Repository is a handle over an opened go-git repository. The host may
// invalidate it at any time; later calls then fail with
// ErrRepositoryUnavailable.
type Repository struct {
	mu   sync.RWMutex
	repo *gitlib.Repository
	path string

	renameScore uint
	renameLimit uint
}

type Option func(*Repository)

func WithRenameScore(score uint) Option {
	return func(r *Repository) {
		if score > 0 && score <= 100 {
			r.renameScore = score
		}
	}
}

func WithRenameLimit(limit uint) Option {
	return func(r *Repository) {
		r.renameLimit = limit
	}
}

func Open(repoPath string, opts ...Option) (*Repository, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return Wrap(repo, root, opts...), nil
}

// Wrap adopts an already opened repository.
func Wrap(repo *gitlib.Repository, root string, opts ...Option) *Repository {
	r := &Repository{repo: repo, path: root, renameScore: DefaultRenameScore}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Invalidate drops the underlying repository.
func (r *Repository) Invalidate() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.repo != nil {
		slog.Debug("repository handle invalidated", slog.String("path", r.path))
	}
	r.repo = nil
}

func (r *Repository) backend() (*gitlib.Repository, error) {
	if r == nil {
		return nil, ErrRepositoryUnavailable
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.repo == nil {
		return nil, ErrRepositoryUnavailable
	}
	return r.repo, nil
}

// ResolveCommit resolves hex ids (full or abbreviated) and symbolic
// revisions such as HEAD~1, branch and tag names.
func (r *Repository) ResolveCommit(rev string) (*object.Commit, error) {
	repo, err := r.backend()
	if err != nil {
		return nil, err
	}
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return nil, fmt.Errorf("revision not specified")
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w: %w", rev, ErrNotFound, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, storeError("read commit "+hash.String(), err)
	}
	return commit, nil
}

func (r *Repository) commit(hash plumbing.Hash) (*object.Commit, error) {
	repo, err := r.backend()
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, storeError("read commit "+hash.String(), err)
	}
	return commit, nil
}

func (r *Repository) diffOptions() *object.DiffTreeOptions {
	return &object.DiffTreeOptions{
		DetectRenames: true,
		RenameScore:   r.renameScore,
		RenameLimit:   r.renameLimit,
	}
}

func abbreviate(hash plumbing.Hash) string {
	return hash.String()[:AbbreviatedLength]
}

// NormalizePath turns a user supplied path into a repository relative,
// forward-slash separated one.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.Trim(p, "/")
}
