package git

import (
	"testing"

	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackOrigin(t *testing.T, f *fixture, upstreamAt plumbing.Hash) {
	t.Helper()
	_, err := f.repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://example.com/history.git"},
	})
	require.NoError(t, err)
	require.NoError(t, f.repo.CreateBranch(&config.Branch{
		Name:   "master",
		Remote: "origin",
		Merge:  plumbing.NewBranchReferenceName("master"),
	}))
	if !upstreamAt.IsZero() {
		ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "master"), upstreamAt)
		require.NoError(t, f.repo.Storer.SetReference(ref))
	}
}

func TestCurrentBranchStarts_WithoutUpstream(t *testing.T) {
	f := newRenameFixture(t)

	starts, err := CurrentBranchStarts(f.handle())
	require.NoError(t, err)
	assert.Equal(t, []plumbing.Hash{f.c4}, starts)
}

func TestCurrentBranchStarts_WithUpstream(t *testing.T) {
	f := newRenameFixture(t)
	trackOrigin(t, f.fixture, f.c2)
	repo := f.handle()

	name, ok, err := UpstreamBranchName(repo, "master")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plumbing.ReferenceName("refs/remotes/origin/master"), name)

	starts, err := CurrentBranchStarts(repo)
	require.NoError(t, err)
	assert.Equal(t, []plumbing.Hash{f.c4, f.c2}, starts)
}

func TestCurrentBranchStarts_UpstreamNotFetched(t *testing.T) {
	f := newRenameFixture(t)
	trackOrigin(t, f.fixture, plumbing.ZeroHash)

	starts, err := CurrentBranchStarts(f.handle())
	require.NoError(t, err)
	assert.Equal(t, []plumbing.Hash{f.c4}, starts)
}

func TestCurrentBranchStarts_UpstreamAtHead(t *testing.T) {
	f := newRenameFixture(t)
	trackOrigin(t, f.fixture, f.c4)

	starts, err := CurrentBranchStarts(f.handle())
	require.NoError(t, err)
	assert.Equal(t, []plumbing.Hash{f.c4}, starts)
}

func TestCurrentBranchStarts_EmptyRepository(t *testing.T) {
	f := newFixture(t)

	starts, err := CurrentBranchStarts(f.handle())
	require.NoError(t, err)
	assert.Empty(t, starts)

	history, err := CurrentBranchRevisions(t.Context(), f.handle(), "")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUpstreamBranchName_Unconfigured(t *testing.T) {
	f := newRenameFixture(t)

	_, ok, err := UpstreamBranchName(f.handle(), "master")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCurrentBranchRevisions(t *testing.T) {
	f := newRenameFixture(t)
	repo := f.handle()

	all, err := CurrentBranchRevisions(t.Context(), repo, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	followed, err := CurrentBranchRevisions(t.Context(), repo, "g.txt")
	require.NoError(t, err)
	assert.Equal(t, hashIDs(f.c4, f.c3, f.c1), ids(followed))
}
