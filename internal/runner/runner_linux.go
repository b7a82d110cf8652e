//go:build linux

package runner

import (
	"os/exec"
	"syscall"

	"github.com/prometheus/procfs"
)

// linuxSampler reads /proc/<pid>/stat via procfs, matching the corpus's
// established way of talking to procfs rather than hand-parsing the file.
type linuxSampler struct {
	fs procfs.FS
}

func newSampler() sampler {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return &linuxSampler{}
	}
	return &linuxSampler{fs: fs}
}

// clockTicksPerSecond is the near-universal Linux USER_HZ value; procfs
// does not itself expose sysconf(_SC_CLK_TCK), so this is read the same way
// the rest of the ecosystem assumes it (100 except on a handful of
// non-x86 kernels this module does not target).
const clockTicksPerSecond = 100

func (s *linuxSampler) sample(pid int) (timeMs int64, memKiB int64, ok bool) {
	proc, err := s.fs.Proc(pid)
	if err != nil {
		return 0, 0, false
	}
	stat, err := proc.Stat()
	if err != nil {
		return 0, 0, false
	}
	timeMs = int64(stat.UTime) * 1000 / clockTicksPerSecond
	memKiB = int64(stat.ResidentMemory()) / 1024
	return timeMs, memKiB, true
}

func configurePlatform(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	// Negative pid targets the whole process group created by Setpgid,
	// so a contestant program that forks is cleaned up too.
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

func suppressCrashDialogs() {}

func applyWorkingSetHint(pid int, memoryLimitMiB int) {}
