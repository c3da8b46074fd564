package git

import (
	"context"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hashicorp/go-set/v2"
)

type followHop struct {
	commit string
	path   string
}

// FollowRenames extends a path-filtered history across renames. While the
// oldest commit renamed some other path into path, that commit is dropped
// and the walk resumes from it with the old path, so the history reads as
// one sequence across name changes.
//
// history is consumed: the returned slice may share its backing array.
func FollowRenames(ctx context.Context, repo *Repository, history []CommitCharacteristics, path string) ([]CommitCharacteristics, error) {
	path = NormalizePath(path)
	seen := set.New[followHop](4)
	for len(history) > 0 && path != "" {
		last := history[len(history)-1]
		if last.IsRoot() {
			break
		}
		if !seen.Insert(followHop{commit: last.ID, path: path}) {
			break
		}
		commit, err := repo.ResolveCommit(last.ID)
		if err != nil {
			return nil, err
		}
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, storeError("read parent of "+commit.Hash.String(), err)
		}
		rename, ok, err := FindRename(ctx, repo, parent, commit, path)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		segment, err := Walk(ctx, repo, []plumbing.Hash{commit.Hash}, rename.OldPath)
		if err != nil {
			return nil, err
		}
		if len(segment) == 0 {
			break
		}
		slog.Debug("following rename",
			slog.String("commit", last.AbbreviatedID),
			slog.String("from", rename.OldPath),
			slog.String("to", rename.NewPath),
			slog.Int("segment", len(segment)),
		)
		history = append(history[:len(history)-1], segment...)
		path = rename.OldPath
	}
	return history, nil
}
