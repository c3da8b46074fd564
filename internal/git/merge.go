package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// MergeChanges reconciles a merge commit against all of its parents and
// keeps the paths that differ from every parent, i.e. the changes made by
// the merge itself. A parent that cannot be compared is skipped and the
// result is returned with an error matching ErrPartialResult.
func MergeChanges(ctx context.Context, repo *Repository, merge *object.Commit) ([]FileStatus, error) {
	if _, err := repo.backend(); err != nil {
		return nil, err
	}
	if merge == nil {
		return nil, fmt.Errorf("commit not specified")
	}
	if merge.NumParents() < 2 {
		return ProjectStatuses(ctx, repo, merge, nil)
	}

	byPath := make(map[string][]FileStatus)
	var order []string
	var errs []error
	compared := 0
	for _, parentHash := range merge.ParentHashes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := diffAgainstParent(ctx, repo, merge, parentHash.String())
		if err != nil {
			if errors.Is(err, ErrRepositoryUnavailable) {
				return nil, err
			}
			errs = append(errs, fmt.Errorf("parent %s: %w", abbreviate(parentHash), err))
			continue
		}
		compared++
		for _, e := range entries {
			st := newFileStatus(e, merge.Hash.String(), parentHash.String())
			if _, seen := byPath[st.Path]; !seen {
				order = append(order, st.Path)
			}
			byPath[st.Path] = append(byPath[st.Path], st)
		}
	}

	files := make([]FileStatus, 0, len(order))
	for _, path := range order {
		statuses := byPath[path]
		// Identical to one side: the change was only brought in by the merge.
		if len(statuses) != compared {
			continue
		}
		st := statuses[0]
		for _, other := range statuses[1:] {
			if other.Kind != st.Kind || other.OldPath != st.OldPath {
				st.Kind = ChangeChanged
				st.OldPath = ""
			}
		}
		files = append(files, st)
	}
	slog.Debug("merge changes reconciled",
		slog.String("commit", merge.Hash.String()),
		slog.Int("parents", merge.NumParents()),
		slog.Int("compared", compared),
		slog.Int("files", len(files)),
	)
	if len(errs) > 0 {
		return partialResult(merge, files, errors.Join(errs...))
	}
	return files, nil
}

func diffAgainstParent(ctx context.Context, repo *Repository, commit *object.Commit, parentID string) ([]DiffEntry, error) {
	parent, err := repo.ResolveCommit(parentID)
	if err != nil {
		return nil, err
	}
	return Diff(ctx, repo, commit, parent)
}
