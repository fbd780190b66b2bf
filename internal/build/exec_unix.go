//go:build unix

package build

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func shellCommand(command string) (string, []string) {
	return "sh", []string{"-c", command}
}

// configureProcess pone el build en su propio grupo para que un timeout
// mate también a los hijos (mvn, gradle...) que heredan los pipes.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
}
