package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiagokokada/gitk-history/internal/git"
)

func commit(id string, parents ...string) git.CommitCharacteristics {
	return git.CommitCharacteristics{AbbreviatedID: id, ParentIDs: parents, GraphParentIDs: parents}
}

func TestGraphLinear(t *testing.T) {
	g := NewGraph()
	assert.Equal(t, "*", g.Line(commit("aaaaaaa", "bbbbbbb")))
	assert.Equal(t, "*", g.Line(commit("bbbbbbb", "ccccccc")))
	assert.Equal(t, "*", g.Line(commit("ccccccc")))
}

func TestGraphMerge(t *testing.T) {
	g := NewGraph()
	// merge of main and side, both on top of base
	assert.Equal(t, "*", g.Line(commit("merge00", "main000", "side000")))
	assert.Equal(t, "| *", g.Line(commit("side000", "base000")))
	assert.Equal(t, "* |", g.Line(commit("main000", "base000")))
	assert.Equal(t, "*", g.Line(commit("base000")))
}

func TestGraphSkipsFilteredParents(t *testing.T) {
	g := NewGraph()
	// c2 did not touch the filtered path, so c3 links straight to c1.
	c3 := commit("ccccccc", "bbbbbbb")
	c3.GraphParentIDs = []string{"aaaaaaa"}
	assert.Equal(t, "*", g.Line(c3))
	assert.Equal(t, "*", g.Line(commit("aaaaaaa")))
	assert.Empty(t, g.columns)
}

func TestLogLine(t *testing.T) {
	c := git.CommitCharacteristics{
		AbbreviatedID: "1a2b3c4",
		Author:        "Alice <alice@example.com>",
		AuthorDate:    time.Date(2024, 3, 1, 9, 1, 0, 0, time.UTC),
		Message:       "Fix parser\n\nLonger body",
	}
	assert.Equal(t, "1a2b3c4  2024-03-01 09:01  Alice (HEAD -> master, tag: v1) Fix parser",
		LogLine(c, []string{"HEAD -> master", "tag: v1"}))
	assert.Equal(t, "1a2b3c4  2024-03-01 09:01  Alice Fix parser", LogLine(c, nil))
}

func TestSubjectTruncates(t *testing.T) {
	long := strings.Repeat("é", 100)
	got := Subject(long + "\nbody")
	assert.Equal(t, maxSubjectLength, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "R old.txt -> new.txt", StatusLine(git.FileStatus{Path: "new.txt", OldPath: "old.txt", Kind: git.ChangeRename}))
	assert.Equal(t, "A a.txt", StatusLine(git.FileStatus{Path: "a.txt", Kind: git.ChangeAdd}))
	assert.Equal(t, "? scratch", StatusLine(git.FileStatus{Path: "scratch", Kind: git.ChangeUntracked}))
	assert.Equal(t, "M b.txt", StatusLine(git.FileStatus{Path: "b.txt", Kind: git.ChangeChanged}))
}

func TestThemePreferenceFromString(t *testing.T) {
	assert.Equal(t, ThemeDark, ThemePreferenceFromString(" Dark "))
	assert.Equal(t, ThemeLight, ThemePreferenceFromString("light"))
	assert.Equal(t, ThemeAuto, ThemePreferenceFromString("whatever"))
}

func TestAutoThemeFollowsOS(t *testing.T) {
	orig := detectDarkMode
	t.Cleanup(func() { detectDarkMode = orig })

	detectDarkMode = func() (bool, error) { return true, nil }
	assert.True(t, ThemeAuto.IsDark())
	assert.False(t, ThemeLight.IsDark())

	detectDarkMode = func() (bool, error) { return false, errors.New("no dbus") }
	assert.False(t, ThemeAuto.IsDark())
	assert.True(t, ThemeDark.IsDark())
}

const sampleDiff = `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@
 package main
-func old() {}
+func updated() {}
(binary files differ)
`

func TestDiffTokensKeepText(t *testing.T) {
	var b strings.Builder
	for _, tok := range diffTokens(sampleDiff) {
		b.WriteString(tok.Value)
	}
	assert.Equal(t, sampleDiff, b.String())
}

func TestDiffTokensMarkers(t *testing.T) {
	tokens := diffTokens(sampleDiff)
	require.NotEmpty(t, tokens)
	assert.Equal(t, chroma.GenericHeading, tokens[0].Type)
	var inserted, deleted bool
	for _, tok := range tokens {
		inserted = inserted || (tok.Type == chroma.GenericInserted && tok.Value == "+")
		deleted = deleted || (tok.Type == chroma.GenericDeleted && tok.Value == "-")
	}
	assert.True(t, inserted)
	assert.True(t, deleted)
}

func TestHighlighterEmitsEscapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHighlighter(ThemeDark).Highlight(&buf, sampleDiff))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "updated")
}
