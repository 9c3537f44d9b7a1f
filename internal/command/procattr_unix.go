//go:build unix

package command

import (
	"os/exec"
	"syscall"
)

func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid addresses the whole group, so grandchildren holding
		// our pipes die with the shell.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
