// Package tool runs the external neuroimaging command line programs (Connectome Workbench and
// FSL) that the pipelines delegate to. A run never panics or exits; its outcome is a Result.
package tool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Result is the outcome of one command invocation
type Result struct {
	Command  string
	Output   []byte
	Err      error
	Duration time.Duration
}

// OK reports whether the command exited with status 0
func (r Result) OK() bool {
	return r.Err == nil
}

// Tail returns at most the last n lines of the combined output
func (r Result) Tail(n int) string {
	lines := strings.Split(strings.TrimRight(string(r.Output), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return strings.Join(lines, "\n")
}

// Runner invokes an external program
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, name string, args ...string) Result

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) Result {
	return f(ctx, name, args...)
}

// Exec runs programs as child processes without a shell
type Exec struct {
	// Dir is the working directory; empty means the current one
	Dir string
	// Env is appended to the inherited environment
	Env []string
}

// Run executes name with args and collects combined stdout and stderr
func (e Exec) Run(ctx context.Context, name string, args ...string) Result {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()

	res := Result{
		Command:  CommandLine(name, args...),
		Output:   out.Bytes(),
		Duration: time.Since(start),
	}
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", name, err)
	}

	return res
}

// CommandLine renders name and args the way a shell user would type them
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, s := range append([]string{name}, args...) {
		if s == "" || strings.ContainsAny(s, " \t\"'$") {
			s = fmt.Sprintf("%q", s)
		}
		parts = append(parts, s)
	}

	return strings.Join(parts, " ")
}
