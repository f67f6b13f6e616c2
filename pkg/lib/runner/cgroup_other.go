//go:build !linux

package runner

import "syscall"

func (runner *Runner) procAttr(string) (*SysProcAttr, error) {
	return &SysProcAttr{Raw: &syscall.SysProcAttr{Setpgid: true}}, nil
}

func killCgroup(string) error { return errNoCgroup }

func removeCgroup(string) {}
