//go:build !unix

package runner

import (
	"os/exec"
	"time"
)

func setProcessGroup(cmd *exec.Cmd) {}

func terminate(cmd *exec.Cmd, _ time.Duration) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
