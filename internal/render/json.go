package render

import (
	"encoding/json"
	"io"
	"time"

	"github.com/thiagokokada/hgblame/internal/blame"
)

type jsonFile struct {
	Path  string     `json:"path"`
	Lines []jsonLine `json:"lines"`
}

type jsonLine struct {
	Line     int       `json:"line"`
	Revision string    `json:"revision"`
	Author   string    `json:"author"`
	Date     time.Time `json:"date"`
}

// JSON writes results as a JSON array, one object per file.
func JSON(w io.Writer, results []blame.Result) error {
	out := make([]jsonFile, 0, len(results))
	for _, res := range results {
		f := jsonFile{Path: res.File.RelPath, Lines: make([]jsonLine, 0, len(res.Lines))}
		for i, l := range res.Lines {
			f.Lines = append(f.Lines, jsonLine{
				Line:     i + 1,
				Revision: l.Revision,
				Author:   l.Author,
				Date:     l.Date,
			})
		}
		out = append(out, f)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
