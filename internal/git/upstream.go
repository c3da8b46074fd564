package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"
)

// CurrentBranchStarts returns the head of the current branch followed by
// its upstream tracking branch, when one is configured and exists. A
// repository without history yields nil.
func CurrentBranchStarts(repo *Repository) ([]plumbing.Hash, error) {
	backend, err := repo.backend()
	if err != nil {
		return nil, err
	}
	head, err := backend.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	starts := []plumbing.Hash{head.Hash()}
	if !head.Name().IsBranch() {
		return starts, nil
	}
	upstream, ok, err := UpstreamBranchName(repo, head.Name().Short())
	if err != nil || !ok {
		return starts, err
	}
	ref, err := backend.Reference(upstream, true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			slog.Debug("upstream not fetched yet", slog.String("ref", upstream.String()))
			return starts, nil
		}
		return nil, storeError("resolve "+upstream.String(), err)
	}
	if ref.Hash() != head.Hash() {
		starts = append(starts, ref.Hash())
	}
	return starts, nil
}

// UpstreamBranchName returns the full name of the remote-tracking branch
// configured for the local branch, e.g. refs/remotes/origin/dev.
func UpstreamBranchName(repo *Repository, branch string) (plumbing.ReferenceName, bool, error) {
	backend, err := repo.backend()
	if err != nil {
		return "", false, err
	}
	cfg, err := backend.Config()
	if err != nil {
		return "", false, storeError("read config", err)
	}
	bc, ok := cfg.Branches[branch]
	if !ok || bc.Merge == "" || bc.Remote == "" {
		return "", false, nil
	}
	if bc.Remote == "." {
		return bc.Merge, true, nil
	}
	return plumbing.NewRemoteReferenceName(bc.Remote, bc.Merge.Short()), true, nil
}

// CurrentBranchRevisions lists the current branch history, optionally for a
// single path whose renames are followed backwards.
func CurrentBranchRevisions(ctx context.Context, repo *Repository, path string) ([]CommitCharacteristics, error) {
	starts, err := CurrentBranchStarts(repo)
	if err != nil {
		return nil, err
	}
	if len(starts) == 0 {
		return nil, nil
	}
	history, err := Walk(ctx, repo, starts, path)
	if err != nil {
		return nil, err
	}
	if NormalizePath(path) == "" {
		return history, nil
	}
	return FollowRenames(ctx, repo, history, path)
}
