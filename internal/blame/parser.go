package blame

import (
	"regexp"
	"strings"
	"time"
)

// binarySuffix ends the single line hg prints instead of annotating a file
// it considers binary.
const binarySuffix = ": binary file"

// dateLayout matches "hg blame --date" output, e.g. "Tue Nov 04 11:01:10 2014 +0100".
const dateLayout = "Mon Jan _2 15:04:05 2006 -0700"

var (
	// blameLineRE matches the attribution prefix of an "hg blame -v --user
	// --date --changeset" line. Everything after the colon following the
	// date is file content and never inspected.
	blameLineRE = regexp.MustCompile(
		`^\s*(.+?)\s+(\S+) ([A-Z][a-z]{2} [A-Z][a-z]{2} [ \d]?\d \d{2}:\d{2}:\d{2} \d{4} [+-]\d{4}):`,
	)
	emailRE = regexp.MustCompile(`<([^<>]*)>$`)
)

// Parser accumulates blame lines fed one output line at a time.
// The zero value is not usable; see NewParser.
type Parser struct {
	file   string
	seen   int
	lines  []Line
	binary bool
}

func NewParser(file string) *Parser {
	return &Parser{file: file}
}

// Consume parses one line of hg blame output. Blank lines are skipped, as
// is the notice hg prints for binary files, which then yield no lines.
func (p *Parser) Consume(raw string) error {
	p.seen++
	raw = strings.TrimRight(raw, "\r")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	line, ok := parseBlameLine(raw)
	if !ok {
		if len(p.lines) == 0 && !p.binary && strings.HasSuffix(raw, binarySuffix) {
			p.binary = true
			return nil
		}
		return &ParseError{File: p.file, LineNo: p.seen, Text: raw}
	}
	p.lines = append(p.lines, line)
	return nil
}

// Lines returns what has been parsed so far.
func (p *Parser) Lines() []Line {
	return p.lines
}

// Binary reports whether hg declined to annotate the file as binary.
func (p *Parser) Binary() bool {
	return p.binary
}

func parseBlameLine(raw string) (Line, bool) {
	m := blameLineRE.FindStringSubmatch(raw)
	if m == nil {
		return Line{}, false
	}
	date, err := time.Parse(dateLayout, m[3])
	if err != nil {
		return Line{}, false
	}
	return Line{
		Date:     date,
		Revision: m[2],
		Author:   parseAuthor(m[1]),
	}, true
}

// parseAuthor returns the email of "Name <email>" and anything else verbatim.
// An empty "<>" falls back to the name in front of it.
func parseAuthor(s string) string {
	s = strings.TrimSpace(s)
	m := emailRE.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	if email := strings.TrimSpace(m[1]); email != "" {
		return email
	}
	if name := strings.TrimSpace(strings.TrimSuffix(s, m[0])); name != "" {
		return name
	}
	return s
}
