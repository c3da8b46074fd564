package render

import (
	"slices"
	"strings"

	"github.com/thiagokokada/gitk-history/internal/git"
)

// Graph draws one ascii lane line per commit. Commits must be fed in walk
// order, children before parents. Lanes follow GraphParentIDs, so commits
// dropped by a path filter do not leave lanes open.
type Graph struct {
	columns []string
}

func NewGraph() *Graph {
	return &Graph{}
}

func (g *Graph) Line(c git.CommitCharacteristics) string {
	idx := slices.Index(g.columns, c.AbbreviatedID)
	if idx == -1 {
		g.columns = append([]string{c.AbbreviatedID}, g.columns...)
		idx = 0
	}
	var b strings.Builder
	for i := range g.columns {
		if i == idx {
			b.WriteString("*")
		} else {
			b.WriteString("|")
		}
		if i != len(g.columns)-1 {
			b.WriteString(" ")
		}
	}
	g.advance(idx, c.GraphParentIDs)
	return b.String()
}

func (g *Graph) advance(idx int, parents []string) {
	if len(parents) == 0 {
		g.columns = slices.Delete(g.columns, idx, idx+1)
		return
	}
	// The first parent keeps the lane, unless another lane already waits
	// for it.
	if other := slices.Index(g.columns, parents[0]); other != -1 && other != idx {
		g.columns = slices.Delete(g.columns, idx, idx+1)
	} else {
		g.columns[idx] = parents[0]
	}
	for i, parent := range parents[1:] {
		if slices.Contains(g.columns, parent) {
			continue
		}
		pos := min(idx+i+1, len(g.columns))
		g.columns = slices.Insert(g.columns, pos, parent)
	}
}
