// Package runner implements the cross-platform sandboxed execution layer:
// launch a contestant executable under CPU-time and memory limits with
// stdio redirection, and classify how it terminated.
package runner

import (
	"context"
	"os"
	"os/exec"
	"time"

	"judgecore/internal/verdict"
	"judgecore/pkg/logger"

	"go.uber.org/zap"
)

// IOConfig names the files stdin/stdout/stderr are redirected from/to. An
// empty path connects the corresponding stream to the null device; the
// parent's own streams are never inherited.
type IOConfig struct {
	StdinPath  string
	StdoutPath string
	StderrPath string
}

// Limits bounds a single execution.
type Limits struct {
	TimeLimitMs    int
	MemoryLimitMiB int // 0 disables memory enforcement
	ExtraTimeRatio float64
}

// Spec describes one process launch.
type Spec struct {
	ExecutablePath   string
	WorkingDirectory string
	Environment      []string
	IO               IOConfig
	Limits           Limits
}

// Outcome is the Runner's verdict on how the process behaved. Only
// CorrectAnswer, TimeLimitExceeded, MemoryLimitExceeded, RunTimeError,
// CannotStartProgram, and FileError (a redirected stdin/stdout file could
// not be opened) are ever produced here — CorrectAnswer means only
// "the process ran to completion with exit code 0", not that the output was
// right; that judgment belongs to the comparators.
type Outcome struct {
	Kind          verdict.ResultKind
	TimeUsedMs    int
	MemoryUsedKiB int
	Message       string
}

// sampler reads live CPU-time and resident-memory usage for a running pid.
// Each OS family supplies its own.
type sampler interface {
	sample(pid int) (timeMs int64, memKiB int64, ok bool)
}

// Runner launches and polls a single contestant process at a time. It is
// safe for concurrent use: each Run call owns its own process and sampler.
type Runner struct {
	log *logger.Logger
}

// New creates a Runner. log may be nil, in which case Global() is used.
func New(log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Global()
	}
	return &Runner{log: log}
}

const pollInterval = 2 * time.Millisecond

// Run launches spec.ExecutablePath and blocks until it terminates, the
// time limit elapses, the memory limit is exceeded, or ctx is cancelled.
// On ctx cancellation Run kills the process group and returns ctx.Err();
// every other path returns a nil error with a populated Outcome.
func (r *Runner) Run(ctx context.Context, spec Spec) (Outcome, error) {
	cmd := exec.Command(spec.ExecutablePath)
	cmd.Dir = spec.WorkingDirectory
	if len(spec.Environment) > 0 {
		cmd.Env = spec.Environment
	}
	configurePlatform(cmd)

	var stdinFile, stdoutFile, stderrFile *os.File
	var err error
	if spec.IO.StdinPath != "" {
		if stdinFile, err = os.Open(spec.IO.StdinPath); err != nil {
			return Outcome{Kind: verdict.FileError, TimeUsedMs: -1, MemoryUsedKiB: -1, Message: err.Error()}, nil
		}
		defer stdinFile.Close()
		cmd.Stdin = stdinFile
	}
	if spec.IO.StdoutPath != "" {
		if stdoutFile, err = os.Create(spec.IO.StdoutPath); err != nil {
			return Outcome{Kind: verdict.FileError, TimeUsedMs: -1, MemoryUsedKiB: -1, Message: err.Error()}, nil
		}
		defer stdoutFile.Close()
		cmd.Stdout = stdoutFile
	}
	if stderrFile, err = os.Create(spec.IO.StderrPath); err == nil {
		defer stderrFile.Close()
		cmd.Stderr = stderrFile
	}

	suppressCrashDialogs()

	if err := cmd.Start(); err != nil {
		return Outcome{Kind: verdict.CannotStartProgram, TimeUsedMs: -1, MemoryUsedKiB: -1}, nil
	}

	applyWorkingSetHint(cmd.Process.Pid, spec.Limits.MemoryLimitMiB)

	smp := newSampler()
	start := time.Now()
	deadline := time.Duration(float64(spec.Limits.TimeLimitMs) * (1 + spec.Limits.ExtraTimeRatio*2) * float64(time.Millisecond))

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastTimeMs, peakMemKiB int64

	for {
		select {
		case waitErr := <-waitDone:
			if t, m, ok := smp.sample(cmd.Process.Pid); ok {
				lastTimeMs = t
				if m > peakMemKiB {
					peakMemKiB = m
				}
			}
			return r.classifyExit(cmd, waitErr, lastTimeMs, peakMemKiB, stderrFile), nil

		case <-ctx.Done():
			killProcessGroup(cmd)
			<-waitDone
			return Outcome{Kind: verdict.CannotStartProgram, TimeUsedMs: -1}, ctx.Err()

		case <-ticker.C:
			t, m, ok := smp.sample(cmd.Process.Pid)
			if ok {
				lastTimeMs = t
				if m > peakMemKiB {
					peakMemKiB = m
				}
				if spec.Limits.MemoryLimitMiB > 0 && m > int64(spec.Limits.MemoryLimitMiB)*1024 {
					killProcessGroup(cmd)
					<-waitDone
					return Outcome{Kind: verdict.MemoryLimitExceeded, TimeUsedMs: -1, MemoryUsedKiB: int(m)}, nil
				}
			}
			if time.Since(start) >= deadline {
				killProcessGroup(cmd)
				<-waitDone
				r.log.Raw().Debug("contestant process exceeded wall-clock deadline", zap.Int("pid", cmd.Process.Pid))
				return Outcome{Kind: verdict.TimeLimitExceeded, TimeUsedMs: -1, MemoryUsedKiB: -1}, nil
			}
		}
	}
}

func (r *Runner) classifyExit(cmd *exec.Cmd, waitErr error, timeMs, memKiB int64, stderrFile *os.File) Outcome {
	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if waitErr != nil && cmd.ProcessState == nil {
		return Outcome{Kind: verdict.RunTimeError, TimeUsedMs: -1, MemoryUsedKiB: int(memKiB), Message: waitErr.Error()}
	}
	if exitCode != 0 {
		msg := ""
		if stderrFile != nil {
			if data, err := os.ReadFile(stderrFile.Name()); err == nil {
				msg = string(data)
			}
		}
		return Outcome{Kind: verdict.RunTimeError, TimeUsedMs: -1, MemoryUsedKiB: int(memKiB), Message: msg}
	}
	if timeMs == 0 && cmd.ProcessState != nil {
		// Process exited faster than the first poll tick; fall back to
		// the OS-reported CPU time rather than report a false zero.
		timeMs = cmd.ProcessState.UserTime().Milliseconds()
	}
	return Outcome{Kind: verdict.CorrectAnswer, TimeUsedMs: int(timeMs), MemoryUsedKiB: int(memKiB)}
}
