package blame

// BuildCommand returns the hg blame invocation for loc.
//
// The path is always preceded by "--" so file names that look like options
// (e.g. "--config=alias.blame=!touch xxx") are passed through as operands.
// See Guideline 10 of the POSIX utility conventions.
func BuildCommand(loc Location, cfg Config) Command {
	args := []string{"blame"}
	if !cfg.ConsiderWhitespaces {
		args = append(args, "-w")
	}
	args = append(args,
		"-v",          // full user name and email
		"--user",      // author
		"--date",      // commit date
		"--changeset", // global revision id
		"--",
		loc.Path,
	)
	return Command{Dir: loc.Root, Args: args}
}
