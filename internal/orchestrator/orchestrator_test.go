package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"judgecore/internal/judgejob"
	"judgecore/internal/runner"
	"judgecore/internal/specialjudge"
	"judgecore/internal/verdict"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func newOrchestrator() *Orchestrator {
	return New(runner.New(nil), specialjudge.Invoker{}, nil)
}

func TestJudge_AnswersOnly(t *testing.T) {
	dir := t.TempDir()
	answer := filepath.Join(dir, "answer.txt")
	os.WriteFile(answer, []byte("42\n"), 0644)
	output := filepath.Join(dir, "output.txt")
	os.WriteFile(output, []byte("42\n"), 0644)

	job := judgejob.TestJob{
		TaskType:       judgejob.AnswersOnly,
		ComparisonMode: judgejob.LineByLineMode,
		AnswerFile:     answer,
		OutputFile:     output,
		FullScore:      100,
	}

	result, err := newOrchestrator().Judge(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != verdict.CorrectAnswer || result.Score != 100 {
		t.Fatalf("got %+v", result)
	}
}

func TestJudge_Traditional_CorrectAnswer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are POSIX-only")
	}
	dir := t.TempDir()
	prog := writeScript(t, dir, "prog.sh", "cat\n")
	input := filepath.Join(dir, "input.txt")
	os.WriteFile(input, []byte("hello\n"), 0644)
	reference := filepath.Join(dir, "output.txt")
	os.WriteFile(reference, []byte("hello\n"), 0644)

	job := judgejob.TestJob{
		TaskType:            judgejob.Traditional,
		ComparisonMode:       judgejob.LineByLineMode,
		ExecutableFile:       prog,
		WorkingDirectory:     dir,
		InputFile:            input,
		OutputFile:           reference,
		StandardInputCheck:   true,
		StandardOutputCheck:  true,
		FullScore:            100,
		TimeLimitMs:          2000,
	}

	result, err := newOrchestrator().Judge(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != verdict.CorrectAnswer || result.Score != 100 {
		t.Fatalf("got %+v", result)
	}
}

func TestJudge_Traditional_RuntimeError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are POSIX-only")
	}
	dir := t.TempDir()
	prog := writeScript(t, dir, "prog.sh", "exit 3\n")
	input := filepath.Join(dir, "input.txt")
	os.WriteFile(input, []byte(""), 0644)
	reference := filepath.Join(dir, "output.txt")
	os.WriteFile(reference, []byte(""), 0644)

	job := judgejob.TestJob{
		TaskType:            judgejob.Traditional,
		ComparisonMode:       judgejob.LineByLineMode,
		ExecutableFile:       prog,
		WorkingDirectory:     dir,
		InputFile:            input,
		OutputFile:           reference,
		StandardInputCheck:   true,
		StandardOutputCheck:  true,
		FullScore:            100,
		TimeLimitMs:          2000,
	}

	result, err := newOrchestrator().Judge(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != verdict.RunTimeError {
		t.Fatalf("got %+v", result)
	}
}

func TestJudge_Traditional_TimeLimitExceeded(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are POSIX-only")
	}
	dir := t.TempDir()
	prog := writeScript(t, dir, "prog.sh", "sleep 2\n")
	input := filepath.Join(dir, "input.txt")
	os.WriteFile(input, []byte(""), 0644)
	reference := filepath.Join(dir, "output.txt")
	os.WriteFile(reference, []byte(""), 0644)

	job := judgejob.TestJob{
		TaskType:            judgejob.Traditional,
		ComparisonMode:       judgejob.LineByLineMode,
		ExecutableFile:       prog,
		WorkingDirectory:     dir,
		InputFile:            input,
		OutputFile:           reference,
		StandardInputCheck:   true,
		StandardOutputCheck:  true,
		FullScore:            100,
		TimeLimitMs:          100,
	}

	start := time.Now()
	result, err := newOrchestrator().Judge(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != verdict.TimeLimitExceeded {
		t.Fatalf("got %+v", result)
	}
	if time.Since(start) > 1500*time.Millisecond {
		t.Fatalf("took too long to detect TLE: %v", time.Since(start))
	}
}

func TestJudge_Traditional_SpecialJudgeCancelledDuringWait(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are POSIX-only")
	}
	dir := t.TempDir()
	prog := writeScript(t, dir, "prog.sh", "cat\n")
	checker := writeScript(t, dir, "checker.sh", "sleep 5; exit 0\n")
	input := filepath.Join(dir, "input.txt")
	os.WriteFile(input, []byte("hello\n"), 0644)
	reference := filepath.Join(dir, "output.txt")
	os.WriteFile(reference, []byte("hello\n"), 0644)

	job := judgejob.TestJob{
		TaskType:                judgejob.Traditional,
		ComparisonMode:          judgejob.SpecialJudgeMode,
		ExecutableFile:          prog,
		WorkingDirectory:        dir,
		InputFile:               input,
		OutputFile:              reference,
		StandardInputCheck:      true,
		StandardOutputCheck:     true,
		FullScore:               100,
		TimeLimitMs:             2000,
		SpecialJudgePath:        checker,
		SpecialJudgeTimeLimitMs: 10000,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := newOrchestrator().Judge(ctx, job, nil)
	if err == nil {
		t.Fatal("expected context deadline error, got a verdict instead")
	}
}
