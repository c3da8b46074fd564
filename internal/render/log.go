package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thiagokokada/gitk-history/internal/git"
)

const maxSubjectLength = 80

// LogLine renders a one line summary of a commit, e.g.
//
//	1a2b3c4  2024-03-01 09:01  Alice (HEAD -> master) Fix parser
func LogLine(c git.CommitCharacteristics, labels []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s", c.AbbreviatedID, c.AuthorDate.Format("2006-01-02 15:04"), authorName(c.Author))
	if len(labels) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(labels, ", "))
	}
	if subject := Subject(c.Message); subject != "" {
		b.WriteByte(' ')
		b.WriteString(subject)
	}
	return b.String()
}

// Subject returns the first line of a commit message, truncated.
func Subject(message string) string {
	subject, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	subject = strings.TrimSpace(subject)
	if utf8.RuneCountInString(subject) <= maxSubjectLength {
		return subject
	}
	runes := []rune(subject)
	return string(runes[:maxSubjectLength-3]) + "..."
}

func authorName(author string) string {
	name, _, found := strings.Cut(author, " <")
	if !found {
		return author
	}
	return name
}

func StatusLine(st git.FileStatus) string {
	if st.Kind == git.ChangeRename {
		return fmt.Sprintf("%s %s -> %s", statusCode(st.Kind), st.OldPath, st.Path)
	}
	return fmt.Sprintf("%s %s", statusCode(st.Kind), st.Path)
}

func statusCode(kind git.ChangeKind) string {
	switch kind {
	case git.ChangeAdd:
		return "A"
	case git.ChangeRemove:
		return "D"
	case git.ChangeRename:
		return "R"
	case git.ChangeUntracked:
		return "?"
	case git.ChangeMissing:
		return "!"
	case git.ChangeConflict:
		return "U"
	default:
		return "M"
	}
}
