// Package remote executes disk-image tooling and places files on the
// hypervisor host.
//
// The provisioner consumes the Executor interface; SSH is the real
// transport. Commands run synchronously and a nonzero exit status is
// surfaced as an *ExitError. The caller decides whether that is fatal
// (disk creation) or an expected probe result (test -f).
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Executor runs commands and copies files on the hypervisor host.
type Executor interface {
	// Run executes argv and returns nil on exit status zero.
	Run(ctx context.Context, argv ...string) error

	// Output executes argv and returns its standard output.
	Output(ctx context.Context, argv ...string) (string, error)

	// Copy writes content to remotePath.
	Copy(ctx context.Context, content []byte, remotePath string) error
}

// ExitError reports a remote command that ran and exited nonzero.
type ExitError struct {
	Argv   []string
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("remote command %q exited with status %d", strings.Join(e.Argv, " "), e.Code)
}

// ExitCode extracts the remote exit status from err, or -1 when err is
// not an ExitError (transport failures, cancellation).
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// Join renders argv as a single shell command line, quoting arguments
// that the remote shell would otherwise interpret.
func Join(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = quote(arg)
	}
	return strings.Join(quoted, " ")
}

func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$&|;<>()[]{}*?!~`#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
