package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/thiagokokada/gitk-history/internal/git"
	"github.com/thiagokokada/gitk-history/internal/render"
)

type logCmd struct {
	Path     string `short:"p" help:"Only show commits touching this file or directory."`
	NoFollow bool   `help:"Do not follow the path across renames."`
	Graph    bool   `short:"g" help:"Draw the commit graph."`
	Limit    int    `short:"n" help:"Maximum number of commits to print (0 for all)."`
}

func (l *logCmd) Run(rc *runContext) error {
	history, err := l.history(rc)
	if err != nil {
		return err
	}
	labels, err := git.BranchLabels(rc.repo)
	if err != nil {
		return err
	}
	if l.Limit > 0 && len(history) > l.Limit {
		history = history[:l.Limit]
	}
	path := git.NormalizePath(l.Path)
	graph := render.NewGraph()
	for _, c := range history {
		line := render.LogLine(c, labels[c.ID])
		if l.Graph {
			line = graph.Line(c) + "  " + line
		}
		if path != "" && c.Path != "" && c.Path != path {
			line += fmt.Sprintf(" [%s]", c.Path)
		}
		fmt.Fprintln(rc.out, line)
	}
	return nil
}

func (l *logCmd) history(rc *runContext) ([]git.CommitCharacteristics, error) {
	if !l.NoFollow {
		return git.CurrentBranchRevisions(rc.ctx, rc.repo, l.Path)
	}
	starts, err := git.CurrentBranchStarts(rc.repo)
	if err != nil || len(starts) == 0 {
		return nil, err
	}
	return git.Walk(rc.ctx, rc.repo, starts, l.Path)
}

type changesCmd struct {
	Rev     string `arg:"" default:"HEAD" help:"Revision to inspect."`
	Parents bool   `help:"Print the parent ids first."`
}

func (c *changesCmd) Run(rc *runContext) error {
	if c.Parents {
		parents, err := git.Parents(rc.repo, c.Rev)
		if err != nil {
			return err
		}
		fmt.Fprintf(rc.out, "parents: %s\n", strings.Join(parents, " "))
	}
	files, err := git.ChangedFiles(rc.ctx, rc.repo, c.Rev)
	return printStatuses(rc, files, err)
}

type mergeChangesCmd struct {
	Rev string `arg:"" default:"HEAD" help:"Merge commit to inspect."`
}

func (c *mergeChangesCmd) Run(rc *runContext) error {
	commit, err := rc.repo.ResolveCommit(c.Rev)
	if err != nil {
		return err
	}
	files, err := git.MergeChanges(rc.ctx, rc.repo, commit)
	return printStatuses(rc, files, err)
}

// printStatuses prints files even when the list is only partial; the cause
// was already logged.
func printStatuses(rc *runContext, files []git.FileStatus, err error) error {
	if err != nil && !git.IsPartial(err) {
		return err
	}
	for _, st := range files {
		fmt.Fprintln(rc.out, render.StatusLine(st))
	}
	return nil
}

type lsFilesCmd struct {
	Rev string `arg:"" default:"HEAD" help:"Revision to list."`
}

func (l *lsFilesCmd) Run(rc *runContext) error {
	commit, err := rc.repo.ResolveCommit(l.Rev)
	if err != nil {
		return err
	}
	files, err := git.ListFiles(rc.repo, commit)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(rc.out, f)
	}
	return nil
}

type diffCmd struct {
	Rev   string `arg:"" help:"Revision to inspect."`
	Path  string `arg:"" help:"File to diff."`
	Color bool   `help:"Highlight the diff."`
}

func (d *diffCmd) Run(rc *runContext) error {
	commit, err := rc.repo.ResolveCommit(d.Rev)
	if err != nil {
		return err
	}
	text, err := git.FileDiff(rc.ctx, rc.repo, commit.Hash.String(), d.Path)
	if err != nil {
		return err
	}
	fmt.Fprintln(rc.out, git.FormatCommitHeader(commit))
	if !d.Color {
		_, err := fmt.Fprint(rc.out, text)
		return err
	}
	return render.NewHighlighter(rc.theme).Highlight(rc.out, text)
}

type resolveCmd struct {
	Since    string `required:"" help:"Older revision of the range."`
	Until    string `default:"HEAD" help:"Newer revision of the range."`
	Path     string `required:"" help:"Path known at --since (or at --until with --backward)."`
	Backward bool   `help:"Map the path from --until back to --since."`
}

func (r *resolveCmd) Run(rc *runContext) error {
	since, err := rc.repo.ResolveCommit(r.Since)
	if err != nil {
		return err
	}
	until, err := rc.repo.ResolveCommit(r.Until)
	if err != nil {
		return err
	}
	dir := git.Forward
	if r.Backward {
		dir = git.Backward
	}
	slog.Debug("resolving path",
		slog.String("path", r.Path),
		slog.String("since", since.Hash.String()),
		slog.String("until", until.Hash.String()),
		slog.String("direction", dir.String()),
	)
	path, err := git.ResolvePath(rc.ctx, rc.repo, since, until, r.Path, dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(rc.out, path)
	return nil
}

type workingCopyPathCmd struct {
	Rev    string `arg:"" help:"Revision the path is known at."`
	Path   string `arg:"" help:"Path at that revision."`
	Object bool   `help:"Also print the object id of the file at HEAD."`
}

func (w *workingCopyPathCmd) Run(rc *runContext) error {
	path, err := git.NewPathInWorkingCopy(rc.ctx, rc.repo, w.Path, w.Rev)
	if err != nil {
		return err
	}
	id, ok, err := git.ObjectID(rc.repo, "HEAD", path)
	if err != nil {
		return err
	}
	if w.Object && ok {
		fmt.Fprintf(rc.out, "%s %s\n", path, id)
		return nil
	}
	fmt.Fprintln(rc.out, path)
	return nil
}
