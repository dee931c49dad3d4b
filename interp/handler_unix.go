//go:build unix

package interp

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// prepareCommand puts cmd in its own process group so a Ctrl-C delivered
// to the shell's terminal doesn't also reach the child directly; the
// runner forwards it deliberately via interruptCommand instead, matching
// how job control normally isolates a foreground pipeline.
func prepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// interruptCommand signals the whole process group, so any grandchildren
// the command spawned are cancelled along with it.
func interruptCommand(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	unix.Kill(-cmd.Process.Pid, unix.SIGINT)
}

func isExecutable(info os.FileInfo) bool {
	return info.Mode()&0o111 != 0
}
