package interp

import "fmt"

// ExitStatus is returned by Runner.Run to carry the executed program's
// final exit status without forcing callers to thread a separate return
// value through Run's ordinary error channel.
type ExitStatus uint8

func (e ExitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// RedirectError wraps a failure to open or apply a redirection target, per
// spec §7's redirection-error category: it aborts only the command the
// redirection was attached to, and the original file descriptors are
// restored before it propagates.
type RedirectError struct {
	Op  string
	Err error
}

func (e *RedirectError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *RedirectError) Unwrap() error { return e.Err }
