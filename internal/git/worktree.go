package git

import (
	"fmt"
	"sort"

	gitlib "github.com/go-git/go-git/v5"
)

// WorkingTree is the uncommitted state of a repository, split between the
// index and the files on disk.
type WorkingTree struct {
	Staged   []FileStatus
	Unstaged []FileStatus
}

type LocalChanges struct {
	HasWorktree bool
	HasStaged   bool
}

// LocalChanges summarises the working tree. Untracked files do not count as
// worktree changes.
func (w WorkingTree) LocalChanges() LocalChanges {
	var res LocalChanges
	for _, st := range w.Unstaged {
		if st.Kind != ChangeUntracked {
			res.HasWorktree = true
			break
		}
	}
	res.HasStaged = len(w.Staged) > 0
	return res
}

func WorkingTreeStatus(repo *Repository) (WorkingTree, error) {
	var res WorkingTree
	backend, err := repo.backend()
	if err != nil {
		return res, err
	}
	wt, err := backend.Worktree()
	if err != nil {
		return res, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return res, fmt.Errorf("worktree status: %w", err)
	}
	for path, st := range status {
		if kind, ok := unstagedKind(st.Worktree); ok {
			res.Unstaged = append(res.Unstaged, FileStatus{Path: path, Kind: kind, CommitID: UncommittedChanges})
		}
		if kind, ok := stagedKind(st.Staging); ok {
			fs := FileStatus{Path: path, Kind: kind, CommitID: UncommittedChanges}
			if kind == ChangeRename {
				fs.OldPath = st.Extra
			}
			res.Staged = append(res.Staged, fs)
		}
	}
	sortByPath(res.Staged)
	sortByPath(res.Unstaged)
	return res, nil
}

func unstagedKind(code gitlib.StatusCode) (ChangeKind, bool) {
	switch code {
	case gitlib.Untracked:
		return ChangeUntracked, true
	case gitlib.Deleted:
		return ChangeMissing, true
	case gitlib.UpdatedButUnmerged:
		return ChangeConflict, true
	case gitlib.Modified, gitlib.Added, gitlib.Renamed, gitlib.Copied:
		return ChangeChanged, true
	}
	return 0, false
}

func stagedKind(code gitlib.StatusCode) (ChangeKind, bool) {
	switch code {
	case gitlib.Added, gitlib.Copied:
		return ChangeAdd, true
	case gitlib.Deleted:
		return ChangeRemove, true
	case gitlib.Modified:
		return ChangeChanged, true
	case gitlib.Renamed:
		return ChangeRename, true
	case gitlib.UpdatedButUnmerged:
		return ChangeConflict, true
	}
	return 0, false
}

func sortByPath(list []FileStatus) {
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
}
