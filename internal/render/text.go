package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/thiagokokada/hgblame/internal/blame"
)

const (
	timeLayout     = "2006-01-02 15:04:05 -0700"
	maxAuthorWidth = 24
)

// Text renders blame results in the style of "hg annotate".
type Text struct {
	// Color enables syntax highlighting of the source lines.
	Color bool
	Theme ThemePreference
	// ReadSource returns the contents of a file. Defaults to os.ReadFile.
	ReadSource func(path string) ([]byte, error)
}

func (t Text) Render(w io.Writer, results []blame.Result) error {
	bw := bufio.NewWriter(w)
	var style *chroma.Style
	if t.Color {
		style = t.Theme.Style()
	}
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		if err := t.renderFile(bw, res, style); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// RenderLines renders the blame of a single file without a header.
func (t Text) RenderLines(res blame.Result) ([]string, error) {
	var sb strings.Builder
	if err := t.renderBody(&sb, res, nil); err != nil {
		return nil, err
	}
	out := strings.Split(sb.String(), "\n")
	return out[:len(out)-1], nil
}

func (t Text) renderFile(w io.Writer, res blame.Result, style *chroma.Style) error {
	fmt.Fprintf(w, "==> %s <==\n", res.File.RelPath)
	if len(res.Lines) == 0 {
		fmt.Fprintln(w, "(no blame information)")
		return nil
	}
	return t.renderBody(w, res, style)
}

func (t Text) renderBody(w io.Writer, res blame.Result, style *chroma.Style) error {
	source, err := t.source(res.File)
	if err != nil {
		return err
	}
	code := t.highlight(res.File.RelPath, source, style)
	authorWidth := 0
	revWidth := 0
	for _, line := range res.Lines {
		authorWidth = max(authorWidth, min(utf8.RuneCountInString(line.Author), maxAuthorWidth))
		revWidth = max(revWidth, len(line.Revision))
	}
	numWidth := len(fmt.Sprint(len(res.Lines)))
	for i, line := range res.Lines {
		content := ""
		if i < len(code) {
			content = code[i]
		}
		fmt.Fprintf(w, "%-*s %-*s %s %*d: %s\n",
			authorWidth, truncate(line.Author, maxAuthorWidth),
			revWidth, line.Revision,
			line.Date.Format(timeLayout),
			numWidth, i+1,
			content,
		)
	}
	return nil
}

func (t Text) source(file blame.File) ([]string, error) {
	read := t.ReadSource
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(file.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file.RelPath, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(text, "\n"), nil
}

// highlight returns lines with terminal escape sequences when style is set.
func (t Text) highlight(path string, lines []string, style *chroma.Style) []string {
	if style == nil {
		return lines
	}
	lexer := lexerForPath(path)
	formatter := formatters.Get("terminal256")
	iterator, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, tokens := range chroma.SplitTokensIntoLines(iterator.Tokens()) {
		if n := len(tokens); n > 0 {
			tokens[n-1].Value = strings.TrimSuffix(tokens[n-1].Value, "\n")
		}
		var sb strings.Builder
		if err := formatter.Format(&sb, style, chroma.Literator(tokens...)); err != nil {
			return lines
		}
		out = append(out, sb.String())
	}
	return out
}

func lexerForPath(path string) chroma.Lexer {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
