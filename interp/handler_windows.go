//go:build windows

package interp

import (
	"os"
	"os/exec"
	"strings"
)

// Windows has no POSIX process groups; the child is left in the parent's
// console session, so Ctrl-C already reaches it directly and there is
// nothing extra for prepareCommand to arrange.
func prepareCommand(cmd *exec.Cmd) {}

// interruptCommand falls back to an immediate kill: windows has no
// SIGINT a child can catch and ignore gracefully, so there is no softer
// option available here.
func interruptCommand(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	cmd.Process.Kill()
}

var execExts = []string{".exe", ".bat", ".cmd", ".com"}

func isExecutable(info os.FileInfo) bool {
	if info.IsDir() {
		return false
	}
	name := strings.ToLower(info.Name())
	for _, ext := range execExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
