package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/thiagokokada/gitk-history/internal/buildinfo"
	"github.com/thiagokokada/gitk-history/internal/git"
	"github.com/thiagokokada/gitk-history/internal/render"
)

type cli struct {
	Repo        string `short:"C" default:"." type:"path" help:"Repository to inspect. Any directory inside the worktree works."`
	Verbose     bool   `short:"v" help:"Enable verbose logging."`
	RenameScore uint   `default:"50" help:"Similarity percentage (1-100) above which a delete and an add become a rename."`
	Theme       string `enum:"auto,light,dark" default:"auto" help:"Color theme for highlighted diffs: auto, light, or dark."`
	Version     bool   `help:"Print version information and exit."`

	Log             logCmd             `cmd:"" default:"withargs" help:"Show the history of the current branch and its upstream."`
	Changes         changesCmd         `cmd:"" help:"List the files changed by a commit, or \"uncommitted\" for the working tree."`
	MergeChanges    mergeChangesCmd    `cmd:"" help:"List the files changed by a merge itself, compared with every parent."`
	LsFiles         lsFilesCmd         `cmd:"" help:"List every file of a revision."`
	Diff            diffCmd            `cmd:"" help:"Show the diff of one file in a commit, following renames."`
	Resolve         resolveCmd         `cmd:"" help:"Map a path across a revision range by replaying renames."`
	WorkingCopyPath workingCopyPathCmd `cmd:"" help:"Find where a path known at a revision lives in the working copy."`
	Tags            tagsCmd            `cmd:"" help:"List tags by commit."`
	Tag             tagCmd             `cmd:"" help:"Tag a commit."`
	Untag           untagCmd           `cmd:"" help:"Delete a tag."`
	Status          statusCmd          `cmd:"" help:"Show the working tree status."`
}

type runContext struct {
	ctx   context.Context
	repo  *git.Repository
	out   io.Writer
	theme render.ThemePreference
}

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("gitk-history"),
		kong.Description("Browse git history across renames."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	if c.Version {
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	}
	setupLogging(stderr, c.Verbose)

	repo, err := git.Open(c.Repo, git.WithRenameScore(c.RenameScore))
	if err != nil {
		return err
	}
	defer repo.Invalidate()
	slog.Debug("repository opened", slog.String("path", repo.Path()), slog.String("command", kctx.Command()))
	return kctx.Run(&runContext{
		ctx:   ctx,
		repo:  repo,
		out:   stdout,
		theme: render.ThemePreferenceFromString(c.Theme),
	})
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
