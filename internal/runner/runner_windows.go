//go:build windows

package runner

import (
	"os/exec"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	psapi                     = windows.NewLazySystemDLL("psapi.dll")
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procGetProcessMemoryInfo  = psapi.NewProc("GetProcessMemoryInfo")
	procSetProcessWorkingSet  = kernel32.NewProc("SetProcessWorkingSetSize")
	procSetErrorMode          = kernel32.NewProc("SetErrorMode")
)

// processMemoryCounters mirrors PROCESS_MEMORY_COUNTERS field for field;
// only peakWorkingSetSize is read by this module.
type processMemoryCounters struct {
	cb                         uint32
	pageFaultCount             uint32
	peakWorkingSetSize         uintptr
	workingSetSize             uintptr
	quotaPeakPagedPoolUsage    uintptr
	quotaPagedPoolUsage        uintptr
	quotaPeakNonPagedPoolUsage uintptr
	quotaNonPagedPoolUsage     uintptr
	pagefileUsage              uintptr
	peakPagefileUsage          uintptr
}

const semNoGPFaultErrorBox = 0x0001
const highPriorityClass = 0x00000080

type windowsSampler struct{}

func newSampler() sampler {
	return &windowsSampler{}
}

func (s *windowsSampler) sample(pid int) (timeMs int64, memKiB int64, ok bool) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, uint32(pid))
	if err != nil {
		return 0, 0, false
	}
	defer windows.CloseHandle(handle)

	var counters processMemoryCounters
	counters.cb = uint32(unsafe.Sizeof(counters))
	r1, _, _ := procGetProcessMemoryInfo.Call(uintptr(handle), uintptr(unsafe.Pointer(&counters)), uintptr(counters.cb))
	if r1 == 0 {
		return 0, 0, false
	}
	memKiB = int64(counters.peakWorkingSetSize) / 1024

	var creation, exit, kernelTime, userTime windows.Filetime
	if err := windows.GetProcessTimes(handle, &creation, &exit, &kernelTime, &userTime); err != nil {
		return 0, memKiB, true
	}
	userTicks := (int64(userTime.HighDateTime) << 32) | int64(userTime.LowDateTime)
	timeMs = userTicks / 10000 // Filetime is in 100ns units.
	return timeMs, memKiB, true
}

func configurePlatform(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: highPriorityClass | windows.CREATE_NEW_PROCESS_GROUP}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

// suppressCrashDialogs mirrors SetErrorMode(SEM_NOGPFAULTERRORBOX), so a
// crashing contestant program does not pop a blocking WER dialog on the
// judging host.
func suppressCrashDialogs() {
	procSetErrorMode.Call(uintptr(semNoGPFaultErrorBox))
}

// applyWorkingSetHint mirrors SetProcessWorkingSetSize(min=limit/4,
// max=limit), a hint to the memory manager that does not itself enforce
// the limit — enforcement still happens in the polling loop.
func applyWorkingSetHint(pid int, memoryLimitMiB int) {
	if memoryLimitMiB <= 0 {
		return
	}
	handle, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA, false, uint32(pid))
	if err != nil {
		return
	}
	defer windows.CloseHandle(handle)
	limitBytes := uintptr(memoryLimitMiB) * 1024 * 1024
	procSetProcessWorkingSet.Call(uintptr(handle), limitBytes/4, limitBytes)
}
