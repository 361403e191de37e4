//go:build !unix

package runner

import "os/exec"

// configureProcess keeps the default CommandContext behavior of killing the
// engine process itself.
func configureProcess(cmd *exec.Cmd) {}
