package blame

// CorrectLastLine compensates for hg not reporting blame on a trailing empty
// line: when exactly one line is missing, the last parsed line is repeated.
// Any other mismatch is left alone.
func CorrectLastLine(lines []Line, declared int) []Line {
	if len(lines) == 0 || len(lines) != declared-1 {
		return lines
	}
	return append(lines, lines[len(lines)-1])
}
