// Package fakerunner provides a scripted tools.CommandRunner for tests.
package fakerunner

import "strings"

// Result is one scripted command outcome.
type Result struct {
	Stdout []byte
	Stderr []byte
	Exit   int32
	Err    error
}

// Runner records every command it is asked to run. Outcomes come from Stub
// when it claims the command, otherwise from the Results queue, otherwise
// success with no output.
type Runner struct {
	Commands [][]string
	Results  []Result
	Stub     func(name string, args []string) (Result, bool)
}

func (r *Runner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := append([]string{name}, args...)
	r.Commands = append(r.Commands, cmd)

	if r.Stub != nil {
		if res, ok := r.Stub(name, args); ok {
			return res.Stdout, res.Stderr, res.Exit, res.Err
		}
	}
	if len(r.Results) > 0 {
		next := r.Results[0]
		r.Results = r.Results[1:]
		return next.Stdout, next.Stderr, next.Exit, next.Err
	}
	return nil, nil, 0, nil
}

// Ran reports whether a recorded command line starts with the given prefix.
func (r *Runner) Ran(prefix ...string) bool {
	for _, cmd := range r.Commands {
		if hasPrefix(cmd, prefix) {
			return true
		}
	}
	return false
}

// Lines renders every recorded command as a single shell-ish line, for
// failure messages.
func (r *Runner) Lines() []string {
	out := make([]string, 0, len(r.Commands))
	for _, cmd := range r.Commands {
		out = append(out, strings.Join(cmd, " "))
	}
	return out
}

func hasPrefix(cmd, prefix []string) bool {
	if len(prefix) > len(cmd) {
		return false
	}
	for i, p := range prefix {
		if cmd[i] != p {
			return false
		}
	}
	return true
}
