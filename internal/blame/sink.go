package blame

import (
	"slices"
	"strings"
	"sync"
)

// Sink receives the blame of each file. Blamer calls BlameResult from
// several goroutines at once.
type Sink interface {
	BlameResult(file File, lines []Line)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(file File, lines []Line)

func (f SinkFunc) BlameResult(file File, lines []Line) {
	f(file, lines)
}

// Result is the blame of one file.
type Result struct {
	File  File
	Lines []Line
}

// Collector is a Sink that keeps every result in memory.
type Collector struct {
	mu      sync.Mutex
	results map[string]Result
}

func (c *Collector) BlameResult(file File, lines []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = make(map[string]Result)
	}
	c.results[file.ID] = Result{File: file, Lines: lines}
}

// Get returns the result delivered for the file with the given ID.
func (c *Collector) Get(id string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[id]
	return res, ok
}

// Results returns all delivered results ordered by relative path.
func (c *Collector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, 0, len(c.results))
	for _, res := range c.results {
		out = append(out, res)
	}
	slices.SortFunc(out, func(a, b Result) int {
		return strings.Compare(a.File.RelPath, b.File.RelPath)
	})
	return out
}
