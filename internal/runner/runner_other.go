//go:build !linux && !windows

package runner

import (
	"os/exec"
)

// stubSampler backs platforms this module has no native memory/CPU-time
// adapter for. Wall-clock time-limit enforcement and exit-code
// classification still work; live memory-limit enforcement does not, since
// this module has no portable way to sample a foreign process's resident
// set outside of linux and windows.
type stubSampler struct{}

func newSampler() sampler {
	return &stubSampler{}
}

func (s *stubSampler) sample(pid int) (timeMs int64, memKiB int64, ok bool) {
	return 0, 0, false
}

func configurePlatform(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func suppressCrashDialogs() {}

func applyWorkingSetHint(pid int, memoryLimitMiB int) {}
