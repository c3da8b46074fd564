package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hashicorp/go-set/v2"
	"github.com/samber/lo"
)

type Direction uint8

const (
	// Forward maps a path known at the older revision to the newer one.
	Forward Direction = iota
	// Backward maps a path known at the newer revision to the older one.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// RevisionRange returns the commits reachable from until but not from
// since, newest first.
func RevisionRange(ctx context.Context, repo *Repository, since, until *object.Commit) ([]*object.Commit, error) {
	if since == nil || until == nil {
		return nil, fmt.Errorf("revision range not specified")
	}
	hide, err := ancestors(ctx, repo, since)
	if err != nil {
		return nil, err
	}
	nodes, err := newWalker(repo, "", hide).run(ctx, []plumbing.Hash{until.Hash})
	if err != nil {
		return nil, err
	}
	return lo.Map(nodes, func(n *walkNode, _ int) *object.Commit { return n.commit }), nil
}

func ancestors(ctx context.Context, repo *Repository, c *object.Commit) (*set.Set[plumbing.Hash], error) {
	seen := set.New[plumbing.Hash](64)
	queue := []plumbing.Hash{c.Hash}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hash := queue[0]
		queue = queue[1:]
		if !seen.Insert(hash) {
			continue
		}
		commit, err := repo.commit(hash)
		if err != nil {
			return nil, err
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return seen, nil
}

// ResolvePath maps knownPath across the since..until range by replaying
// renames. When no rename is found the path is returned unchanged.
func ResolvePath(ctx context.Context, repo *Repository, since, until *object.Commit, knownPath string, dir Direction) (string, error) {
	revs, err := RevisionRange(ctx, repo, since, until)
	if err != nil {
		return "", err
	}
	sequence := append(revs, since)
	if dir == Forward {
		sequence = lo.Reverse(sequence)
	}
	return findPath(ctx, repo, NormalizePath(knownPath), sequence)
}

// findPath follows path through revisions and returns its name in the last
// one.
func findPath(ctx context.Context, repo *Repository, path string, revisions []*object.Commit) (string, error) {
	if len(revisions) == 0 {
		return path, nil
	}
	target, err := fileSet(repo, revisions[len(revisions)-1])
	if err != nil {
		return "", err
	}
	var previous *object.Commit
	for _, current := range revisions {
		if previous == nil {
			previous = current
			continue
		}
		if target.Contains(path) {
			break
		}
		files, err := fileSet(repo, current)
		if err != nil {
			return "", err
		}
		// Still there, no need for a rename aware diff.
		if !files.Contains(path) {
			slog.Debug("searching rename", slog.String("path", path), slog.String("commit", abbreviate(current.Hash)))
			entries, err := Diff(ctx, repo, current, previous)
			if err != nil {
				return "", err
			}
			for _, e := range entries {
				if IsRename(e) && e.OldPath == path {
					path = e.NewPath
					break
				}
			}
		}
		previous = current
	}
	return path, nil
}

// NewPathInWorkingCopy returns where path, known at rev, lives in the
// working copy. Paths still present are returned as is; missing ones are
// resolved forward from rev to HEAD.
func NewPathInWorkingCopy(ctx context.Context, repo *Repository, path, rev string) (string, error) {
	backend, err := repo.backend()
	if err != nil {
		return "", err
	}
	path = NormalizePath(path)
	wt, err := backend.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}
	if _, err := wt.Filesystem.Lstat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	older, err := repo.ResolveCommit(rev)
	if err != nil {
		return "", err
	}
	newer, err := repo.ResolveCommit("HEAD")
	if err != nil {
		return "", err
	}
	return ResolvePath(ctx, repo, older, newer, path, Forward)
}
