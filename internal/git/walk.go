package git

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hashicorp/go-set/v2"
	"github.com/oleiade/lane/v2"
	"github.com/samber/lo"
)

// CommitCharacteristics is the display record of one visited commit.
type CommitCharacteristics struct {
	Message       string
	Author        string // Name <email>
	AuthorDate    time.Time
	AbbreviatedID string
	ID            string
	Committer     string
	ParentIDs     []string // abbreviated, nil for root commits
	// GraphParentIDs are the nearest ancestors that are part of the same
	// walk result, abbreviated. They equal ParentIDs for unfiltered walks.
	GraphParentIDs []string
	// Path is the path the commit was matched on. It differs from the
	// requested path for commits reached by following a rename.
	Path string
}

func (c CommitCharacteristics) IsRoot() bool {
	return len(c.ParentIDs) == 0
}

func newCharacteristics(c *object.Commit, path string) CommitCharacteristics {
	var parents []string
	if len(c.ParentHashes) > 0 {
		parents = lo.Map(c.ParentHashes, func(h plumbing.Hash, _ int) string {
			return abbreviate(h)
		})
	}
	return CommitCharacteristics{
		Message:       c.Message,
		Author:        fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
		AuthorDate:    c.Author.When,
		AbbreviatedID: abbreviate(c.Hash),
		ID:            c.Hash.String(),
		Committer:     c.Committer.Name,
		ParentIDs:     parents,
		Path:          path,
	}
}

// Walk visits the union of history reachable from starts, newest first.
// No commit is returned before one of its descendants; among commits whose
// descendants were all returned, the latest committer time wins.
//
// With a non-empty pathFilter only commits where the path (file or
// directory) differs from every parent are returned, and merges identical
// to one parent on that path only follow that parent.
func Walk(ctx context.Context, repo *Repository, starts []plumbing.Hash, pathFilter string) ([]CommitCharacteristics, error) {
	path := NormalizePath(pathFilter)
	w := newWalker(repo, path, nil)
	nodes, err := w.run(ctx, starts)
	if err != nil {
		return nil, err
	}
	out := make([]CommitCharacteristics, 0, len(nodes))
	for _, node := range nodes {
		c := newCharacteristics(node.commit, path)
		c.GraphParentIDs = lo.Map(node.graphParents, func(h plumbing.Hash, _ int) string {
			return abbreviate(h)
		})
		out = append(out, c)
	}
	slog.Debug("walk done",
		slog.Int("starts", len(starts)),
		slog.String("path", path),
		slog.Int("visited", len(w.nodes)),
		slog.Int("returned", len(out)),
	)
	return out, nil
}

type walker struct {
	repo *Repository
	path string
	hide *set.Set[plumbing.Hash]

	nodes map[plumbing.Hash]*walkNode
	// discovered keeps discovery order so ties break the same way every run.
	discovered []*walkNode
	pathStates map[plumbing.Hash]pathState
}

type walkNode struct {
	commit *object.Commit
	// parents are the edges the walk follows; history simplification may
	// drop some of the commit's real parents.
	parents  []plumbing.Hash
	keep     bool
	children int
	// order is the discovery index.
	order int
	// graphParents are the nearest kept ancestors, set for kept nodes.
	graphParents []plumbing.Hash
}

// walkPriority orders by committer time (whole seconds, as git stores it)
// and then by discovery order, earlier first.
func walkPriority(node *walkNode) int64 {
	return node.commit.Committer.When.Unix()<<31 - int64(node.order)
}

type pathState struct {
	hash    plumbing.Hash
	present bool
}

func newWalker(repo *Repository, path string, hide *set.Set[plumbing.Hash]) *walker {
	if hide == nil {
		hide = set.New[plumbing.Hash](0)
	}
	return &walker{
		repo:       repo,
		path:       path,
		hide:       hide,
		nodes:      make(map[plumbing.Hash]*walkNode),
		pathStates: make(map[plumbing.Hash]pathState),
	}
}

func (w *walker) run(ctx context.Context, starts []plumbing.Hash) ([]*walkNode, error) {
	if _, err := w.repo.backend(); err != nil {
		return nil, err
	}
	if err := w.discover(ctx, starts); err != nil {
		return nil, err
	}
	for _, node := range w.discovered {
		for _, parent := range node.parents {
			if pn, ok := w.nodes[parent]; ok {
				pn.children++
			}
		}
	}

	ready := lane.NewMaxPriorityQueue[*walkNode, int64]()
	for _, node := range w.discovered {
		if node.children == 0 {
			ready.Push(node, walkPriority(node))
		}
	}
	var popped, ordered []*walkNode
	for !ready.Empty() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node, _, ok := ready.Pop()
		if !ok {
			break
		}
		popped = append(popped, node)
		if node.keep {
			ordered = append(ordered, node)
		}
		for _, parent := range node.parents {
			pn, ok := w.nodes[parent]
			if !ok {
				continue
			}
			pn.children--
			if pn.children == 0 {
				ready.Push(pn, walkPriority(pn))
			}
		}
	}
	linkKept(popped)
	return ordered, nil
}

// linkKept sets graphParents by skipping over commits the path filter
// dropped. popped is in walk order, so reversing it sees parents first.
func linkKept(popped []*walkNode) {
	nearest := make(map[plumbing.Hash][]plumbing.Hash, len(popped))
	for _, node := range slices.Backward(popped) {
		var ancestors []plumbing.Hash
		for _, parent := range node.parents {
			for _, h := range nearest[parent] {
				if !slices.Contains(ancestors, h) {
					ancestors = append(ancestors, h)
				}
			}
		}
		if node.keep {
			node.graphParents = ancestors
			nearest[node.commit.Hash] = []plumbing.Hash{node.commit.Hash}
		} else {
			nearest[node.commit.Hash] = ancestors
		}
	}
}

func (w *walker) discover(ctx context.Context, starts []plumbing.Hash) error {
	stack := make([]plumbing.Hash, 0, len(starts))
	for i := len(starts) - 1; i >= 0; i-- {
		stack = append(stack, starts[i])
	}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		hash := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := w.nodes[hash]; seen || w.hide.Contains(hash) {
			continue
		}
		commit, err := w.repo.commit(hash)
		if err != nil {
			return err
		}
		node, err := w.newNode(commit)
		if err != nil {
			return err
		}
		node.order = len(w.discovered)
		w.nodes[hash] = node
		w.discovered = append(w.discovered, node)
		for i := len(node.parents) - 1; i >= 0; i-- {
			parent := node.parents[i]
			if _, seen := w.nodes[parent]; !seen && !w.hide.Contains(parent) {
				stack = append(stack, parent)
			}
		}
	}
	return nil
}

func (w *walker) newNode(c *object.Commit) (*walkNode, error) {
	node := &walkNode{commit: c, parents: c.ParentHashes, keep: true}
	if w.path == "" {
		return node, nil
	}
	own, err := w.pathAt(c)
	if err != nil {
		return nil, err
	}
	if len(c.ParentHashes) == 0 {
		node.keep = own.present
		return node, nil
	}
	for _, parentHash := range c.ParentHashes {
		parent, err := w.repo.commit(parentHash)
		if err != nil {
			return nil, err
		}
		theirs, err := w.pathAt(parent)
		if err != nil {
			return nil, err
		}
		if theirs == own {
			node.parents = []plumbing.Hash{parentHash}
			node.keep = false
			return node, nil
		}
	}
	return node, nil
}

func (w *walker) pathAt(c *object.Commit) (pathState, error) {
	if st, ok := w.pathStates[c.Hash]; ok {
		return st, nil
	}
	tree, err := c.Tree()
	if err != nil {
		return pathState{}, storeError("read tree of "+c.Hash.String(), err)
	}
	var st pathState
	entry, err := tree.FindEntry(w.path)
	switch {
	case err == nil:
		st = pathState{hash: entry.Hash, present: true}
	case isMissing(err):
	default:
		return pathState{}, storeError("find "+w.path, err)
	}
	w.pathStates[c.Hash] = st
	return st, nil
}
