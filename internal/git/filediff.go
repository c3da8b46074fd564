package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"
)

const diffContextLines = 3

type fileChange struct {
	oldPath string
	newPath string
	from    *object.File
	to      *object.File
}

// FileDiff renders the unified diff of path introduced by rev, compared
// with its first parent. When rev renamed the file the old side is read
// from the previous name.
func FileDiff(ctx context.Context, repo *Repository, rev, path string) (string, error) {
	path = NormalizePath(path)
	commit, err := repo.ResolveCommit(rev)
	if err != nil {
		return "", err
	}
	var parent *object.Commit
	if commit.NumParents() > 0 {
		parent, err = commit.Parent(0)
		if err != nil {
			return "", storeError("read parent of "+commit.Hash.String(), err)
		}
	}
	change := fileChange{oldPath: path, newPath: path}
	if parent != nil {
		rename, ok, err := FindRename(ctx, repo, parent, commit, path)
		if err != nil {
			return "", err
		}
		if ok {
			change.oldPath = rename.OldPath
		}
		if change.from, err = fileAt(parent, change.oldPath); err != nil {
			return "", err
		}
	}
	if change.to, err = fileAt(commit, path); err != nil {
		return "", err
	}
	if change.from == nil && change.to == nil {
		return "", fmt.Errorf("diff %s at %s: %w", path, abbreviate(commit.Hash), ErrNotFound)
	}
	return renderFileDiff(change)
}

func fileAt(c *object.Commit, path string) (*object.File, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, storeError("read tree of "+c.Hash.String(), err)
	}
	f, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("read "+path, err)
	}
	return f, nil
}

func renderFileDiff(ch fileChange) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", ch.oldPath, ch.newPath)
	if ch.oldPath != ch.newPath {
		fmt.Fprintf(&b, "rename from %s\nrename to %s\n", ch.oldPath, ch.newPath)
	}
	isBinary, err := binaryChange(ch)
	if err != nil {
		return "", err
	}
	if isBinary {
		b.WriteString("(binary files differ)\n")
		return b.String(), nil
	}
	fromLines, err := fileLines(ch.from)
	if err != nil {
		return "", err
	}
	toLines, err := fileLines(ch.to)
	if err != nil {
		return "", err
	}
	fromFile, toFile := "a/"+ch.oldPath, "b/"+ch.newPath
	if ch.from == nil {
		fromFile = "/dev/null"
	}
	if ch.to == nil {
		toFile = "/dev/null"
	}
	diffText, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        fromLines,
		B:        toLines,
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  diffContextLines,
	})
	if err != nil {
		return "", err
	}
	if diffText == "" {
		b.WriteString("(no textual changes)\n")
		return b.String(), nil
	}
	b.WriteString(diffText)
	if !strings.HasSuffix(diffText, "\n") {
		b.WriteString("\n")
	}
	return b.String(), nil
}

func binaryChange(ch fileChange) (bool, error) {
	for _, f := range []*object.File{ch.from, ch.to} {
		if f == nil {
			continue
		}
		bin, err := f.IsBinary()
		if err != nil {
			return false, err
		}
		if bin {
			return true, nil
		}
	}
	return false, nil
}

func fileLines(f *object.File) ([]string, error) {
	if f == nil {
		return []string{}, nil
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return difflib.SplitLines(content), nil
}

// FormatCommitHeader renders the git-show style header of a commit.
func FormatCommitHeader(c *object.Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", c.Hash)
	if c.NumParents() > 1 {
		parents := make([]string, 0, c.NumParents())
		for _, h := range c.ParentHashes {
			parents = append(parents, abbreviate(h))
		}
		fmt.Fprintf(&b, "Merge: %s\n", strings.Join(parents, " "))
	}
	appendSignatureLine(&b, "Author", c.Author)
	committer := c.Committer
	if committer.Name == "" && committer.Email == "" && committer.When.IsZero() {
		committer = c.Author
	}
	appendSignatureLine(&b, "Committer", committer)
	b.WriteString("\n")
	message := strings.TrimRight(c.Message, "\n")
	if message == "" {
		b.WriteString("    (no commit message)\n")
		return b.String()
	}
	for line := range strings.SplitSeq(message, "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "    %s\n", line)
	}
	return b.String()
}

func appendSignatureLine(b *strings.Builder, label string, sig object.Signature) {
	fmt.Fprintf(b, "%s: %s <%s>", label, sig.Name, sig.Email)
	if !sig.When.IsZero() {
		fmt.Fprintf(b, "  %s", sig.When.Format("2006-01-02 15:04:05 -0700"))
	}
	b.WriteByte('\n')
}
