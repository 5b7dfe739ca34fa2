// Package focus probes which application is frontmost on macOS.
package focus

import (
	"os/exec"
	"strings"
)

const targetProcess = "Things3"

const frontmostScript = `tell application "System Events" to get name of first application process whose frontmost is true`

// TargetActive reports whether Things is the frontmost application. Any
// failure to probe reports false, so an unreadable desktop skips the run
// rather than hammering the remote API from the background.
func TargetActive() bool {
	out, err := exec.Command("osascript", "-e", frontmostScript).Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == targetProcess
}
