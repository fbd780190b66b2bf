//go:build !unix

package build

import "os/exec"

func shellCommand(command string) (string, []string) {
	return "cmd", []string{"/C", command}
}

func configureProcess(cmd *exec.Cmd) {}
