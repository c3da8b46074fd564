package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Highlighter colours unified diffs for a 256 colour terminal. Code lines
// are tokenised with the lexer matching the file being diffed.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
}

func NewHighlighter(pref ThemePreference) *Highlighter {
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &Highlighter{style: styleForPreference(pref), formatter: formatter}
}

func (h *Highlighter) Highlight(w io.Writer, diff string) error {
	if diff == "" {
		return nil
	}
	tokens := diffTokens(diff)
	if err := h.formatter.Format(w, h.style, chroma.Literator(tokens...)); err != nil {
		return fmt.Errorf("highlight diff: %w", err)
	}
	return nil
}

func diffTokens(diff string) []chroma.Token {
	var tokens []chroma.Token
	var current chroma.Lexer
	for line := range strings.Lines(diff) {
		text := strings.TrimSuffix(line, "\n")
		if path, ok := diffPathFromLine(text); ok {
			current = lexerForPath(path)
			tokens = append(tokens, chroma.Token{Type: chroma.GenericHeading, Value: line})
			continue
		}
		switch {
		case strings.HasPrefix(text, "--- "), strings.HasPrefix(text, "+++ "):
			tokens = append(tokens, chroma.Token{Type: chroma.GenericHeading, Value: line})
			continue
		case strings.HasPrefix(text, "@@"):
			tokens = append(tokens, chroma.Token{Type: chroma.GenericSubheading, Value: line})
			continue
		}
		marker, code, ok := diffLineCode(text)
		if !ok || current == nil {
			tokens = append(tokens, chroma.Token{Type: chroma.Text, Value: line})
			continue
		}
		tokens = append(tokens, chroma.Token{Type: marker, Value: text[:1]})
		tokens = append(tokens, codeTokens(current, code)...)
	}
	return tokens
}

func codeTokens(lexer chroma.Lexer, code string) []chroma.Token {
	iterator, err := lexer.Tokenise(nil, code+"\n")
	if err != nil {
		return []chroma.Token{{Type: chroma.Text, Value: code + "\n"}}
	}
	return iterator.Tokens()
}

// diffPathFromLine returns the new side path of a "diff --git" header.
func diffPathFromLine(line string) (string, bool) {
	const prefix = "diff --git "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	_, b, found := strings.Cut(line[len(prefix):], " b/")
	if !found {
		return "", true
	}
	return b, true
}

func diffLineCode(line string) (chroma.TokenType, string, bool) {
	if line == "" {
		return 0, "", false
	}
	switch line[0] {
	case '+':
		return chroma.GenericInserted, line[1:], true
	case '-':
		return chroma.GenericDeleted, line[1:], true
	case ' ':
		return chroma.Text, line[1:], true
	default:
		return 0, "", false
	}
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
