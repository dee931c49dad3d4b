//go:build !unix && !windows

package interp

import (
	"os"
	"os/exec"
)

func prepareCommand(cmd *exec.Cmd) {}

func interruptCommand(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	cmd.Process.Kill()
}

func isExecutable(info os.FileInfo) bool {
	return info.Mode()&0o111 != 0
}
