package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeChanges_KeepsOnlyChangesMadeByTheMerge(t *testing.T) {
	f := newMergeFixture(t)

	files, err := MergeChanges(t.Context(), f.handle(), f.commitObject(f.merge))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "c.txt", files[0].Path)
	assert.Equal(t, ChangeAdd, files[0].Kind)
	assert.Equal(t, f.merge.String(), files[0].CommitID)
}

func TestMergeChanges_NonMergeFallsBackToParentDiff(t *testing.T) {
	f := newMergeFixture(t)

	files, err := MergeChanges(t.Context(), f.handle(), f.commitObject(f.main))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, paths(files))
}

func TestMergeChanges_FailingParentIsPartial(t *testing.T) {
	f := newMergeFixture(t)
	failDiffFrom(t, f.treeHash(f.side))

	files, err := MergeChanges(t.Context(), f.handle(), f.commitObject(f.merge))
	require.Error(t, err)
	assert.True(t, IsPartial(err))
	assert.Contains(t, err.Error(), "corrupt pack")
	// Only the first parent could be compared.
	assert.ElementsMatch(t, []string{"b.txt", "c.txt"}, paths(files))
}

func TestMergeChanges_MissingParentIsPartial(t *testing.T) {
	f := newMergeFixture(t)
	graft := f.graftMerge()

	files, err := MergeChanges(t.Context(), f.handle(), f.commitObject(graft))
	require.Error(t, err)
	assert.True(t, IsPartial(err))
	assert.ElementsMatch(t, []string{"b.txt", "c.txt"}, paths(files))
}

func TestMergeChanges_InvalidatedRepository(t *testing.T) {
	f := newMergeFixture(t)
	repo := f.handle()
	merge := f.commitObject(f.merge)
	repo.Invalidate()

	_, err := MergeChanges(t.Context(), repo, merge)
	assert.ErrorIs(t, err, ErrRepositoryUnavailable)
}
