package git

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const defaultTaggerName = "gitk-history"

// TagMap maps abbreviated commit ids to the names of the tags pointing at
// them. Annotated tags are peeled to their commit.
func TagMap(repo *Repository) (map[string][]string, error) {
	backend, err := repo.backend()
	if err != nil {
		return nil, err
	}
	tags, err := backend.Tags()
	if err != nil {
		return nil, storeError("list tags", err)
	}
	defer tags.Close()
	out := make(map[string][]string)
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		hash, ok := peelTagCommitHash(backend, ref.Hash())
		if !ok {
			slog.Debug("skipping tag not pointing at a commit", slog.String("tag", ref.Name().Short()))
			return nil
		}
		key := abbreviate(hash)
		out[key] = append(out[key], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, storeError("list tags", err)
	}
	for _, names := range out {
		slices.Sort(names)
	}
	return out, nil
}

func ExistsTag(repo *Repository, name string) (bool, error) {
	backend, err := repo.backend()
	if err != nil {
		return false, err
	}
	_, err = backend.Reference(plumbing.NewTagReferenceName(name), false)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	return false, storeError("read tag "+name, err)
}

// TagCommit tags rev. An empty message creates a lightweight tag.
func TagCommit(repo *Repository, name, message, rev string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("tag name not specified")
	}
	backend, err := repo.backend()
	if err != nil {
		return err
	}
	commit, err := repo.ResolveCommit(rev)
	if err != nil {
		return err
	}
	var opts *gitlib.CreateTagOptions
	if message != "" {
		opts = &gitlib.CreateTagOptions{Message: message, Tagger: tagger(backend)}
	}
	if _, err := backend.CreateTag(name, commit.Hash, opts); err != nil {
		return fmt.Errorf("create tag %s: %w", name, err)
	}
	slog.Debug("tag created", slog.String("tag", name), slog.String("commit", abbreviate(commit.Hash)))
	return nil
}

func DeleteTag(repo *Repository, name string) error {
	backend, err := repo.backend()
	if err != nil {
		return err
	}
	if err := backend.DeleteTag(name); err != nil {
		if errors.Is(err, gitlib.ErrTagNotFound) {
			return fmt.Errorf("delete tag %s: %w", name, ErrNotFound)
		}
		return fmt.Errorf("delete tag %s: %w", name, err)
	}
	return nil
}

func tagger(repo *gitlib.Repository) *object.Signature {
	sig := &object.Signature{Name: defaultTaggerName, When: time.Now()}
	cfg, err := repo.Config()
	if err != nil {
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	sig.Email = cfg.User.Email
	return sig
}

func peelTagCommitHash(repo *gitlib.Repository, hash plumbing.Hash) (plumbing.Hash, bool) {
	if repo == nil || hash == plumbing.ZeroHash {
		return plumbing.ZeroHash, false
	}
	// Lightweight tags point directly at a commit; annotated tags point at a tag object.
	if _, err := repo.CommitObject(hash); err == nil {
		return hash, true
	}
	cur := hash
	for range 8 {
		tag, err := repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}
