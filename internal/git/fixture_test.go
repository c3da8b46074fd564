package git

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/util"
	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// fixture builds a real repository on disk, one commit per call, with
// committer times a minute apart.
type fixture struct {
	t     *testing.T
	dir   string
	repo  *gitlib.Repository
	wt    *gitlib.Worktree
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &fixture{
		t:     t,
		dir:   dir,
		repo:  repo,
		wt:    wt,
		clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) handle(opts ...Option) *Repository {
	return Wrap(f.repo, f.dir, opts...)
}

// put writes a file on disk without staging it.
func (f *fixture) put(path, content string) {
	f.t.Helper()
	require.NoError(f.t, util.WriteFile(f.wt.Filesystem, path, []byte(content), 0o644))
}

func (f *fixture) write(path, content string) {
	f.t.Helper()
	f.put(path, content)
	_, err := f.wt.Add(path)
	require.NoError(f.t, err)
}

func (f *fixture) remove(path string) {
	f.t.Helper()
	_, err := f.wt.Remove(path)
	require.NoError(f.t, err)
}

func (f *fixture) move(from, to string) {
	f.t.Helper()
	_, err := f.wt.Move(from, to)
	require.NoError(f.t, err)
}

func (f *fixture) commit(msg string, parents ...plumbing.Hash) plumbing.Hash {
	f.t.Helper()
	f.clock = f.clock.Add(time.Minute)
	sig := &object.Signature{Name: "Tester", Email: "tester@example.com", When: f.clock}
	opts := &gitlib.CommitOptions{Author: sig, Committer: sig, AllowEmptyCommits: true}
	if len(parents) > 0 {
		opts.Parents = parents
	}
	hash, err := f.wt.Commit(msg, opts)
	require.NoError(f.t, err)
	return hash
}

func (f *fixture) detach(hash plumbing.Hash) {
	f.t.Helper()
	require.NoError(f.t, f.wt.Checkout(&gitlib.CheckoutOptions{Hash: hash, Force: true}))
}

func (f *fixture) checkoutBranch(name string) {
	f.t.Helper()
	require.NoError(f.t, f.wt.Checkout(&gitlib.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Force:  true,
	}))
}

func (f *fixture) commitObject(hash plumbing.Hash) *object.Commit {
	f.t.Helper()
	c, err := f.repo.CommitObject(hash)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) treeHash(hash plumbing.Hash) plumbing.Hash {
	return f.commitObject(hash).TreeHash
}

// lines returns n distinct lines so that small edits stay above the rename
// similarity threshold.
func lines(prefix string, n int) string {
	var out []byte
	for i := range n {
		out = append(out, []byte(prefix)...)
		out = append(out, ' ', byte('a'+i%26), byte('a'+i/26), '\n')
	}
	return string(out)
}

// mergeFixture is:
//
//	base (a.txt, b.txt)
//	├── main: a.txt edited
//	└── side: b.txt edited
//	merge of main and side, adding c.txt
type mergeFixture struct {
	*fixture
	base, main, side, merge plumbing.Hash
}

func newMergeFixture(t *testing.T) *mergeFixture {
	t.Helper()
	f := newFixture(t)
	f.write("a.txt", lines("alpha", 10))
	f.write("b.txt", lines("beta", 10))
	base := f.commit("base")
	f.write("a.txt", lines("alpha", 10)+"main\n")
	main := f.commit("main edits a")
	f.detach(base)
	f.write("b.txt", lines("beta", 10)+"side\n")
	side := f.commit("side edits b")
	f.checkoutBranch("master")
	f.write("b.txt", lines("beta", 10)+"side\n")
	f.write("c.txt", "merge only\n")
	merge := f.commit("merge side", main, side)
	return &mergeFixture{fixture: f, base: base, main: main, side: side, merge: merge}
}

// graftMerge stores a copy of merge whose second parent is an object the
// repository does not have, as in a shallow or grafted clone.
func (f *mergeFixture) graftMerge() plumbing.Hash {
	f.t.Helper()
	merge := f.commitObject(f.merge)
	graft := &object.Commit{
		Author:       merge.Author,
		Committer:    merge.Committer,
		Message:      "merge with missing parent",
		TreeHash:     merge.TreeHash,
		ParentHashes: []plumbing.Hash{f.main, plumbing.NewHash("1111111111111111111111111111111111111111")},
	}
	obj := f.repo.Storer.NewEncodedObject()
	require.NoError(f.t, graft.Encode(obj))
	hash, err := f.repo.Storer.SetEncodedObject(obj)
	require.NoError(f.t, err)
	return hash
}

// renameFixture is a linear history where f.txt becomes g.txt:
//
//	c1 add f.txt, c2 add other.txt, c3 rename f.txt -> g.txt, c4 edit g.txt
type renameFixture struct {
	*fixture
	c1, c2, c3, c4 plumbing.Hash
}

func newRenameFixture(t *testing.T) *renameFixture {
	t.Helper()
	f := newFixture(t)
	f.write("f.txt", lines("file", 12))
	c1 := f.commit("add f")
	f.write("other.txt", "unrelated\n")
	c2 := f.commit("add other")
	f.move("f.txt", "g.txt")
	c3 := f.commit("rename f to g")
	f.write("g.txt", lines("file", 12)+"tail\n")
	c4 := f.commit("edit g")
	return &renameFixture{fixture: f, c1: c1, c2: c2, c3: c3, c4: c4}
}

func ids(history []CommitCharacteristics) []string {
	out := make([]string, 0, len(history))
	for _, c := range history {
		out = append(out, c.ID)
	}
	return out
}

func hashIDs(hashes ...plumbing.Hash) []string {
	out := make([]string, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, h.String())
	}
	return out
}

func paths(files []FileStatus) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}
