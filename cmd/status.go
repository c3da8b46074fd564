package cmd

import (
	"fmt"
	"log/slog"

	"github.com/thiagokokada/gitk-history/internal/git"
	"github.com/thiagokokada/gitk-history/internal/render"
	"github.com/thiagokokada/gitk-history/internal/statuscache"
)

type statusCmd struct {
	Watch bool `short:"w" help:"Keep running and print the status again whenever the repository changes."`
}

func (s *statusCmd) Run(rc *runContext) error {
	cache := statuscache.New(func() (git.WorkingTree, error) {
		return git.WorkingTreeStatus(rc.repo)
	})
	if err := printWorkingTree(rc, cache); err != nil {
		return err
	}
	if !s.Watch {
		return nil
	}
	changed := make(chan struct{}, 1)
	cache.OnReset(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err := cache.Watch(rc.ctx, rc.repo.Path()); err != nil {
		return err
	}
	defer func() {
		if err := cache.Close(); err != nil {
			slog.Error("watcher close", slog.Any("error", err))
		}
	}()
	for {
		select {
		case <-rc.ctx.Done():
			return nil
		case <-changed:
			fmt.Fprintln(rc.out)
			if err := printWorkingTree(rc, cache); err != nil {
				return err
			}
		}
	}
}

func printWorkingTree(rc *runContext, cache *statuscache.Cache) error {
	wt, err := cache.Status()
	if err != nil {
		return err
	}
	local := wt.LocalChanges()
	if !local.HasStaged && !local.HasWorktree && len(wt.Unstaged) == 0 {
		fmt.Fprintln(rc.out, "nothing to commit, working tree clean")
		return nil
	}
	if len(wt.Staged) > 0 {
		fmt.Fprintln(rc.out, "Staged:")
		for _, st := range wt.Staged {
			fmt.Fprintln(rc.out, "  "+render.StatusLine(st))
		}
	}
	if len(wt.Unstaged) > 0 {
		fmt.Fprintln(rc.out, "Unstaged:")
		for _, st := range wt.Unstaged {
			fmt.Fprintln(rc.out, "  "+render.StatusLine(st))
		}
	}
	return nil
}
