package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// BranchLabels maps full commit ids to the decorations shown next to them
// in a log: HEAD first, then branches, remote branches and tags.
func BranchLabels(repo *Repository) (map[string][]string, error) {
	backend, err := repo.backend()
	if err != nil {
		return nil, err
	}
	labels := map[string][]string{}
	refs, err := backend.References()
	if err != nil {
		return nil, storeError("list references", err)
	}
	defer refs.Close()
	var headHash plumbing.Hash
	var headBranch string
	if headRef, err := backend.Head(); err == nil && headRef != nil {
		headHash = headRef.Hash()
		if headRef.Name().IsBranch() {
			headBranch = headRef.Name().Short()
		}
	}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		if !name.IsBranch() && !name.IsRemote() && !name.IsTag() {
			return nil
		}
		short := name.Short()
		if name.IsRemote() && strings.HasSuffix(short, "/HEAD") {
			return nil
		}
		hash := ref.Hash()
		label := short
		if name.IsTag() {
			label = "tag: " + short
			peeled, ok := peelTagCommitHash(backend, hash)
			if !ok {
				return nil
			}
			hash = peeled
		}
		labels[hash.String()] = append(labels[hash.String()], label)
		return nil
	})
	if err != nil {
		return nil, storeError("list references", err)
	}
	if headHash != plumbing.ZeroHash {
		key := headHash.String()
		label := "HEAD"
		if headBranch != "" {
			label = fmt.Sprintf("HEAD -> %s", headBranch)
		}
		labels[key] = append([]string{label}, labels[key]...)
	}
	return labels, nil
}
