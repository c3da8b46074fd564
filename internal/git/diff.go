package git

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hashicorp/go-set/v2"
)

type ChangeType uint8

const (
	ChangeTypeAdd ChangeType = iota
	ChangeTypeDelete
	ChangeTypeModify
	ChangeTypeRename
)

func (c ChangeType) String() string {
	switch c {
	case ChangeTypeAdd:
		return "add"
	case ChangeTypeDelete:
		return "delete"
	case ChangeTypeModify:
		return "modify"
	case ChangeTypeRename:
		return "rename"
	default:
		return fmt.Sprintf("ChangeType(%d)", uint8(c))
	}
}

// DiffEntry is one changed path between two trees. OldPath is empty for
// additions and NewPath is empty for deletions.
type DiffEntry struct {
	OldPath string
	NewPath string
	Change  ChangeType
	OldHash plumbing.Hash
	NewHash plumbing.Hash
}

// Path returns the path the entry is known by after the change.
func (e DiffEntry) Path() string {
	if e.NewPath != "" {
		return e.NewPath
	}
	return e.OldPath
}

func IsRename(e DiffEntry) bool {
	return e.Change == ChangeTypeRename
}

// diffTrees is swapped in tests to inject store failures.
var diffTrees = object.DiffTreeWithOptions

// Diff compares oldCommit with newCommit. A nil oldCommit stands for the
// empty tree, so every file of newCommit shows up as added.
func Diff(ctx context.Context, repo *Repository, newCommit, oldCommit *object.Commit) ([]DiffEntry, error) {
	if _, err := repo.backend(); err != nil {
		return nil, err
	}
	if newCommit == nil {
		return nil, fmt.Errorf("commit not specified")
	}
	newTree, err := newCommit.Tree()
	if err != nil {
		return nil, storeError("read tree of "+newCommit.Hash.String(), err)
	}
	var oldTree *object.Tree
	if oldCommit != nil {
		oldTree, err = oldCommit.Tree()
		if err != nil {
			return nil, storeError("read tree of "+oldCommit.Hash.String(), err)
		}
	}
	return diffTreePair(ctx, repo, oldTree, newTree)
}

// FindRename looks for the rename that produced path when going from parent
// to commit.
func FindRename(ctx context.Context, repo *Repository, parent, commit *object.Commit, path string) (DiffEntry, bool, error) {
	path = NormalizePath(path)
	entries, err := Diff(ctx, repo, commit, parent)
	if err != nil {
		return DiffEntry{}, false, err
	}
	for _, entry := range entries {
		if IsRename(entry) && entry.NewPath == path {
			return entry, true, nil
		}
	}
	return DiffEntry{}, false, nil
}

func diffTreePair(ctx context.Context, repo *Repository, from, to *object.Tree) ([]DiffEntry, error) {
	raw, err := diffTrees(ctx, from, to, &object.DiffTreeOptions{})
	if err != nil {
		return nil, storeError("diff trees", err)
	}
	return detectRenames(raw, repo.diffOptions())
}

// detectRenames folds delete/add pairs into renames. Renames come first in
// detector order, followed by the untouched raw entries in scan order.
func detectRenames(raw object.Changes, opts *object.DiffTreeOptions) ([]DiffEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	detected, err := object.DetectRenames(raw, opts)
	if err != nil {
		return nil, storeError("detect renames", err)
	}
	entries := make([]DiffEntry, 0, len(detected))
	renamedFrom := set.New[string](len(detected))
	renamedTo := set.New[string](len(detected))
	for _, ch := range detected {
		if !isRenameChange(ch) {
			continue
		}
		entries = append(entries, newDiffEntry(ch))
		renamedFrom.Insert(ch.From.Name)
		renamedTo.Insert(ch.To.Name)
	}
	for _, ch := range raw {
		if ch.From.Name != "" && renamedFrom.Contains(ch.From.Name) {
			continue
		}
		if ch.To.Name != "" && renamedTo.Contains(ch.To.Name) {
			continue
		}
		entries = append(entries, newDiffEntry(ch))
	}
	return entries, nil
}

func isRenameChange(ch *object.Change) bool {
	return ch.From.Name != "" && ch.To.Name != "" && ch.From.Name != ch.To.Name
}

func newDiffEntry(ch *object.Change) DiffEntry {
	entry := DiffEntry{
		OldPath: NormalizePath(ch.From.Name),
		NewPath: NormalizePath(ch.To.Name),
		OldHash: ch.From.TreeEntry.Hash,
		NewHash: ch.To.TreeEntry.Hash,
	}
	switch {
	case ch.From.Name == "":
		entry.Change = ChangeTypeAdd
	case ch.To.Name == "":
		entry.Change = ChangeTypeDelete
	case ch.From.Name != ch.To.Name:
		entry.Change = ChangeTypeRename
	default:
		entry.Change = ChangeTypeModify
	}
	return entry
}
