package git

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hashicorp/go-set/v2"
	"github.com/samber/lo"
)

type ChangeKind uint8

const (
	ChangeAdd ChangeKind = iota
	ChangeRemove
	ChangeChanged
	ChangeRename
	// Working tree only.
	ChangeUntracked
	ChangeMissing
	ChangeConflict
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeRemove:
		return "remove"
	case ChangeChanged:
		return "changed"
	case ChangeRename:
		return "rename"
	case ChangeUntracked:
		return "untracked"
	case ChangeMissing:
		return "missing"
	case ChangeConflict:
		return "conflict"
	default:
		return fmt.Sprintf("ChangeKind(%d)", uint8(k))
	}
}

// FileStatus is one file's change within a commit transition.
type FileStatus struct {
	Path        string
	OldPath     string // set for renames
	Kind        ChangeKind
	CommitID    string
	OldCommitID string // empty for root commits
}

// ProjectStatuses lists the files changed by commit. The baseline is
// oldCommit when given, otherwise the commit's parent, otherwise the empty
// tree. Merge commits take the slower merge path; when that path fails the
// returned error matches ErrPartialResult and the list may be empty.
func ProjectStatuses(ctx context.Context, repo *Repository, commit, oldCommit *object.Commit) ([]FileStatus, error) {
	if _, err := repo.backend(); err != nil {
		return nil, err
	}
	if commit == nil {
		return nil, fmt.Errorf("commit not specified")
	}
	// No parent object is read before this point, so a missing parent of a
	// merge (shallow or grafted clones) still yields a result.
	if commit.NumParents() > 1 {
		slog.Debug("merge commit, using full diff",
			slog.String("commit", commit.Hash.String()),
			slog.Int("parents", commit.NumParents()),
		)
		return mergeStatuses(ctx, repo, commit, oldCommit)
	}
	trees, err := statusTrees(commit, oldCommit)
	if err != nil {
		return nil, err
	}
	entries, err := scanTrees(ctx, repo, trees)
	if err != nil {
		return nil, err
	}
	oldID := ""
	switch {
	case oldCommit != nil:
		oldID = oldCommit.Hash.String()
	case commit.NumParents() == 1:
		oldID = commit.ParentHashes[0].String()
	}
	return toFileStatuses(entries, commit.Hash.String(), oldID), nil
}

// statusTrees returns the baseline and commit trees of a non-merge commit.
// A nil baseline stands for the empty tree.
func statusTrees(commit, oldCommit *object.Commit) ([]*object.Tree, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, storeError("read tree of "+commit.Hash.String(), err)
	}
	base := oldCommit
	if base == nil && commit.NumParents() == 1 {
		base, err = commit.Parent(0)
		if err != nil {
			return nil, storeError("read parent of "+commit.Hash.String(), err)
		}
	}
	if base == nil {
		return []*object.Tree{nil, tree}, nil
	}
	baseTree, err := base.Tree()
	if err != nil {
		return nil, storeError("read tree of "+base.Hash.String(), err)
	}
	return []*object.Tree{baseTree, tree}, nil
}

func scanTrees(ctx context.Context, repo *Repository, trees []*object.Tree) ([]DiffEntry, error) {
	if len(trees) != 2 {
		return nil, fmt.Errorf("scan %d trees: %w", len(trees), ErrUnsupported)
	}
	return diffTreePair(ctx, repo, trees[0], trees[1])
}

// mergeStatuses diffs a merge commit against one representative parent.
// Diff failures are downgraded to an empty, partial result so one merge
// does not break a whole history listing.
func mergeStatuses(ctx context.Context, repo *Repository, commit, representative *object.Commit) ([]FileStatus, error) {
	var err error
	if representative == nil {
		representative, err = commit.Parent(0)
		if err != nil {
			return partialResult(commit, nil, err)
		}
	}
	entries, err := Diff(ctx, repo, commit, representative)
	if err != nil {
		return partialResult(commit, nil, err)
	}
	return toFileStatuses(entries, commit.Hash.String(), representative.Hash.String()), nil
}

func partialResult(commit *object.Commit, files []FileStatus, cause error) ([]FileStatus, error) {
	slog.Warn("merge commit file list is incomplete",
		slog.String("commit", commit.Hash.String()),
		slog.Int("files", len(files)),
		slog.Any("error", cause),
	)
	if files == nil {
		files = []FileStatus{}
	}
	return files, &PartialResultError{Commit: commit.Hash.String(), Err: cause}
}

func toFileStatuses(entries []DiffEntry, commitID, oldCommitID string) []FileStatus {
	return lo.Map(entries, func(e DiffEntry, _ int) FileStatus {
		return newFileStatus(e, commitID, oldCommitID)
	})
}

func newFileStatus(e DiffEntry, commitID, oldCommitID string) FileStatus {
	st := FileStatus{Path: e.Path(), CommitID: commitID, OldCommitID: oldCommitID}
	switch e.Change {
	case ChangeTypeAdd:
		st.Kind = ChangeAdd
	case ChangeTypeDelete:
		st.Kind = ChangeRemove
	case ChangeTypeRename:
		st.Kind = ChangeRename
		st.OldPath = e.OldPath
	default:
		st.Kind = ChangeChanged
	}
	return st
}

// ChangedFiles lists the files changed by rev compared with its first
// parent. UncommittedChanges lists the unstaged working tree files.
func ChangedFiles(ctx context.Context, repo *Repository, rev string) ([]FileStatus, error) {
	if rev == UncommittedChanges {
		wt, err := WorkingTreeStatus(repo)
		if err != nil {
			return nil, err
		}
		return wt.Unstaged, nil
	}
	commit, err := repo.ResolveCommit(rev)
	if err != nil {
		return nil, err
	}
	if commit.NumParents() != 1 {
		// Merges resolve their first parent on the merge path.
		return ProjectStatuses(ctx, repo, commit, nil)
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return nil, storeError("read parent of "+commit.Hash.String(), err)
	}
	return ProjectStatuses(ctx, repo, commit, parent)
}

// ListFiles returns every file in the commit's tree, sorted.
func ListFiles(repo *Repository, commit *object.Commit) ([]string, error) {
	files, err := fileSet(repo, commit)
	if err != nil {
		return nil, err
	}
	paths := files.Slice()
	slices.Sort(paths)
	return paths, nil
}

func fileSet(repo *Repository, commit *object.Commit) (*set.Set[string], error) {
	if _, err := repo.backend(); err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, storeError("read tree of "+commit.Hash.String(), err)
	}
	files := set.New[string](64)
	err = tree.Files().ForEach(func(f *object.File) error {
		files.Insert(NormalizePath(f.Name))
		return nil
	})
	if err != nil {
		return nil, storeError("list files of "+commit.Hash.String(), err)
	}
	return files, nil
}

// ObjectID returns the object id of path at rev, or false when the path is
// not part of that revision.
func ObjectID(repo *Repository, rev, path string) (plumbing.Hash, bool, error) {
	commit, err := repo.ResolveCommit(rev)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return plumbing.ZeroHash, false, storeError("read tree of "+commit.Hash.String(), err)
	}
	entry, err := tree.FindEntry(NormalizePath(path))
	if err != nil {
		if isMissing(err) {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, storeError("find "+path, err)
	}
	return entry.Hash, true, nil
}

// Parents returns the full parent ids of rev.
func Parents(repo *Repository, rev string) ([]string, error) {
	if rev == UncommittedChanges {
		return []string{}, nil
	}
	commit, err := repo.ResolveCommit(rev)
	if err != nil {
		return nil, err
	}
	return lo.Map(commit.ParentHashes, func(h plumbing.Hash, _ int) string {
		return h.String()
	}), nil
}
