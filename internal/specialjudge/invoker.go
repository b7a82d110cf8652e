// Package specialjudge invokes an external special-judge binary and
// interprets its score/message file protocol.
package specialjudge

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"judgecore/internal/external"
	"judgecore/internal/verdict"
)

// Invoker runs a special-judge binary with the 6 positional arguments the
// protocol expects and reads back its score/message files.
type Invoker struct {
	Settings external.Settings
}

// Invoke runs the special judge at specialJudgePath (joined onto
// Settings.DataPath() when it is relative and Settings is set) against the
// given input/contestant-output/standard-output triple.
// workingDirectory is where the "_score" and "_message" scratch files are
// written and removed. fullScore is passed to the judge as its 4th
// argument and also used to classify the resulting score into a verdict.
func (inv Invoker) Invoke(ctx context.Context, specialJudgePath, inputFile, contestantOutput, standardOutput, workingDirectory string, fullScore int, timeLimitMs int) (Result, error) {
	if _, err := os.Stat(inputFile); err != nil {
		return Result{Kind: verdict.FileError, Message: "cannot find standard input file"}, nil
	}
	if _, err := os.Stat(contestantOutput); err != nil {
		return Result{Kind: verdict.FileError, Message: "cannot find contestant's output file"}, nil
	}
	if _, err := os.Stat(standardOutput); err != nil {
		return Result{Kind: verdict.FileError, Message: "cannot find standard output file"}, nil
	}

	binaryPath := specialJudgePath
	if !filepath.IsAbs(binaryPath) && inv.Settings != nil {
		binaryPath = filepath.Join(inv.Settings.DataPath(), specialJudgePath)
	}

	scoreFile := filepath.Join(workingDirectory, "_score")
	messageFile := filepath.Join(workingDirectory, "_message")
	defer os.Remove(scoreFile)
	defer os.Remove(messageFile)

	cmd := exec.Command(binaryPath, inputFile, contestantOutput, standardOutput,
		strconv.Itoa(fullScore), scoreFile, messageFile)

	if err := cmd.Start(); err != nil {
		return Result{Kind: verdict.InvalidSpecialJudge, Message: err.Error()}, nil
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-waitDone
		return Result{}, ctx.Err()
	case <-time.After(time.Duration(timeLimitMs) * time.Millisecond):
		_ = cmd.Process.Kill()
		<-waitDone
		return Result{Kind: verdict.SpecialJudgeTimeLimitExceeded}, nil
	case err := <-waitDone:
		if err != nil {
			return Result{Kind: verdict.SpecialJudgeRunTimeError, Message: err.Error()}, nil
		}
	}

	score, err := readScore(scoreFile)
	if err != nil {
		return Result{Kind: verdict.InvalidSpecialJudge, Message: err.Error()}, nil
	}
	if score < 0 {
		return Result{Kind: verdict.InvalidSpecialJudge, Message: "special judge reported a negative score"}, nil
	}

	message := readMessage(messageFile)

	var kind verdict.ResultKind
	switch {
	case score == 0:
		kind = verdict.WrongAnswer
	case score < fullScore:
		kind = verdict.PartlyCorrect
	default:
		kind = verdict.CorrectAnswer
	}

	return Result{Score: score, Kind: kind, Message: message}, nil
}

// Result mirrors compare.Result so the orchestrator can treat a special
// judge invocation and an in-process comparator identically.
type Result struct {
	Score   int
	Kind    verdict.ResultKind
	Message string
}

func readScore(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("special judge did not write a score file")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	if !scanner.Scan() {
		return 0, fmt.Errorf("score file is empty")
	}
	score, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return 0, fmt.Errorf("score file does not contain an integer")
	}
	return score, nil
}

func readMessage(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
