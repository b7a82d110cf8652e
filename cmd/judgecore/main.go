// Command judgecore drives a single test-case judgment from a YAML job
// description, printing the resulting verdict as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"judgecore/internal/external"
	"judgecore/internal/orchestrator"
	"judgecore/internal/runner"
	"judgecore/internal/specialjudge"
	"judgecore/internal/verdict"
	"judgecore/pkg/contextkey"
	"judgecore/pkg/judgeerr"
	"judgecore/pkg/logger"

	"github.com/google/shlex"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	jobPath := flag.String("job", "", "path to a job YAML file")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error")
	logFormat := flag.String("log-format", "console", "json or console")
	extraEnv := flag.String("extra-env", "", "extra KEY=VALUE pairs to append to the contestant's environment, shell-quoted")
	flag.Parse()

	extraEnvPairs, err := shlex.Split(*extraEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -extra-env:", err)
		return 2
	}

	if err := logger.Init(logger.Config{Level: *logLevel, Format: *logFormat, Component: "judgecore"}); err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		return 1
	}
	defer logger.Sync()

	if *jobPath == "" {
		fmt.Fprintln(os.Stderr, "usage: judgecore -job <path>")
		return 2
	}

	cfg, err := loadJobConfig(*jobPath)
	if err != nil {
		logger.Error(context.Background(), "invalid job file", zap.Error(err))
		return 2
	}

	runID := uuid.NewString()
	ctx := context.WithValue(context.Background(), contextkey.RunID, runID)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := judgeOnce(ctx, cfg, extraEnvPairs)
	if err != nil {
		code := judgeerr.InternalError
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			code = judgeerr.Timeout
		}
		logger.Warn(ctx, "judgment cancelled", zap.Error(judgeerr.Wrap(err, code)))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resultToJSON(result)); err != nil {
		fmt.Fprintln(os.Stderr, "encode result:", err)
		return 1
	}
	return 0
}

func judgeOnce(ctx context.Context, cfg jobConfig, extraEnv []string) (verdict.JudgeResult, error) {
	job := cfg.toTestJob()
	job.Environment = append(append([]string{}, job.Environment...), extraEnv...)
	sjSettings := external.Settings(settings{dataPath: cfg.DataPath})

	r := runner.New(logger.Global())
	sj := specialjudge.Invoker{Settings: sjSettings}
	orch := orchestrator.New(r, sj, logger.Global())

	// A rejudge-mode job retries the program up to 10 times internally;
	// size the overall deadline generously so that loop can't hang the
	// process forever, independent of the orchestrator's own retry cap.
	attempts := 1
	if job.CheckRejudgeMode {
		attempts = 11
	}
	deadline := time.Duration(job.TimeLimitMs*attempts) * time.Millisecond * 4
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	return orch.Judge(runCtx, job, nil)
}

type jsonResult struct {
	Score         int    `json:"score"`
	Result        string `json:"result"`
	Message       string `json:"message,omitempty"`
	TimeUsedMs    int    `json:"time_used_ms"`
	MemoryUsedKiB int    `json:"memory_used_kib"`
	NeedRejudge   bool   `json:"need_rejudge,omitempty"`
}

func resultToJSON(r verdict.JudgeResult) jsonResult {
	return jsonResult{
		Score:         r.Score,
		Result:        r.Kind.String(),
		Message:       r.Message,
		TimeUsedMs:    r.TimeUsedMs,
		MemoryUsedKiB: r.MemoryUsedKiB,
		NeedRejudge:   r.NeedRejudge,
	}
}
