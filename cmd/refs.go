package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/thiagokokada/gitk-history/internal/git"
)

type tagsCmd struct{}

func (tagsCmd) Run(rc *runContext) error {
	tags, err := git.TagMap(rc.repo)
	if err != nil {
		return err
	}
	ids := lo.Keys(tags)
	slices.Sort(ids)
	for _, id := range ids {
		fmt.Fprintf(rc.out, "%s %s\n", id, strings.Join(tags[id], " "))
	}
	return nil
}

type tagCmd struct {
	Name    string `arg:"" help:"Tag name."`
	Rev     string `arg:"" default:"HEAD" help:"Revision to tag."`
	Message string `short:"m" help:"Create an annotated tag with this message."`
}

func (t *tagCmd) Run(rc *runContext) error {
	exists, err := git.ExistsTag(rc.repo, t.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("tag %s already exists", t.Name)
	}
	return git.TagCommit(rc.repo, t.Name, t.Message, t.Rev)
}

type untagCmd struct {
	Name string `arg:"" help:"Tag name."`
}

func (u *untagCmd) Run(rc *runContext) error {
	return git.DeleteTag(rc.repo, u.Name)
}
