package runner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"judgecore/internal/verdict"
)

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "prog.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRun_CorrectAnswer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are POSIX-only")
	}
	dir := t.TempDir()
	prog := writeScript(t, dir, "echo hi\n")

	outcome, err := New(nil).Run(context.Background(), Spec{
		ExecutablePath:   prog,
		WorkingDirectory: dir,
		IO:               IOConfig{StdoutPath: filepath.Join(dir, "out"), StderrPath: filepath.Join(dir, "err")},
		Limits:           Limits{TimeLimitMs: 2000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != verdict.CorrectAnswer {
		t.Fatalf("got %+v", outcome)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are POSIX-only")
	}
	dir := t.TempDir()
	prog := writeScript(t, dir, "echo boom 1>&2; exit 1\n")

	outcome, err := New(nil).Run(context.Background(), Spec{
		ExecutablePath:   prog,
		WorkingDirectory: dir,
		IO:               IOConfig{StderrPath: filepath.Join(dir, "err")},
		Limits:           Limits{TimeLimitMs: 2000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != verdict.RunTimeError {
		t.Fatalf("got %+v", outcome)
	}
	if outcome.Message != "boom\n" {
		t.Fatalf("message = %q", outcome.Message)
	}
}

func TestRun_TimeLimitExceeded(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are POSIX-only")
	}
	dir := t.TempDir()
	prog := writeScript(t, dir, "sleep 2\n")

	start := time.Now()
	outcome, err := New(nil).Run(context.Background(), Spec{
		ExecutablePath:   prog,
		WorkingDirectory: dir,
		IO:               IOConfig{StderrPath: filepath.Join(dir, "err")},
		Limits:           Limits{TimeLimitMs: 100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != verdict.TimeLimitExceeded {
		t.Fatalf("got %+v", outcome)
	}
	if time.Since(start) > 1500*time.Millisecond {
		t.Fatalf("took too long: %v", time.Since(start))
	}
}

func TestRun_CannotStart(t *testing.T) {
	dir := t.TempDir()
	outcome, err := New(nil).Run(context.Background(), Spec{
		ExecutablePath:   filepath.Join(dir, "does-not-exist"),
		WorkingDirectory: dir,
		IO:               IOConfig{StderrPath: filepath.Join(dir, "err")},
		Limits:           Limits{TimeLimitMs: 2000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != verdict.CannotStartProgram {
		t.Fatalf("got %+v", outcome)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are POSIX-only")
	}
	dir := t.TempDir()
	prog := writeScript(t, dir, "sleep 5\n")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(nil).Run(ctx, Spec{
		ExecutablePath:   prog,
		WorkingDirectory: dir,
		IO:               IOConfig{StderrPath: filepath.Join(dir, "err")},
		Limits:           Limits{TimeLimitMs: 10000},
	})
	if err == nil {
		t.Fatal("expected context deadline error")
	}
}
