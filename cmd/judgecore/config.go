package main

import (
	"fmt"
	"os"

	"judgecore/internal/judgejob"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// jobConfig is the on-disk shape of a single judging request, decoded from
// the file passed via --job. It is intentionally flatter than TestJob so
// operators can hand-write one without knowing Go enum values.
type jobConfig struct {
	TaskType       string  `yaml:"task_type" validate:"omitempty,oneof=traditional answers_only"`
	ComparisonMode string  `yaml:"comparison_mode" validate:"required,oneof=line_by_line real_number special_judge"`
	RealPrecision  int     `yaml:"real_precision" validate:"omitempty,min=0"`
	FullScore      int     `yaml:"full_score" validate:"required,min=1"`
	TimeLimitMs    int     `yaml:"time_limit_ms" validate:"required,min=1"`
	MemoryLimitMiB int     `yaml:"memory_limit_mib" validate:"omitempty,min=0"`
	ExtraTimeRatio float64 `yaml:"extra_time_ratio" validate:"omitempty,min=0"`
	CheckRejudge   bool    `yaml:"check_rejudge"`

	ExecutableFile   string `yaml:"executable_file" validate:"required"`
	WorkingDirectory string `yaml:"working_directory" validate:"required"`
	InputFile        string `yaml:"input_file"`
	OutputFile       string `yaml:"output_file"`
	AnswerFile       string `yaml:"answer_file"`

	StandardInputCheck  bool   `yaml:"standard_input_check"`
	StandardOutputCheck bool   `yaml:"standard_output_check"`
	InputFileName       string `yaml:"input_file_name"`
	OutputFileName      string `yaml:"output_file_name"`

	SpecialJudgePath        string `yaml:"special_judge_path"`
	SpecialJudgeTimeLimitMs int    `yaml:"special_judge_time_limit_ms" validate:"omitempty,min=1"`

	Environment []string `yaml:"environment"`

	DataPath string `yaml:"data_path"`
}

func loadJobConfig(path string) (jobConfig, error) {
	var cfg jobConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read job file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse job file: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validate job file: %w", err)
	}
	return cfg, nil
}

func (c jobConfig) toTestJob() judgejob.TestJob {
	job := judgejob.TestJob{
		ExecutableFile:          c.ExecutableFile,
		WorkingDirectory:        c.WorkingDirectory,
		InputFile:               c.InputFile,
		OutputFile:              c.OutputFile,
		AnswerFile:              c.AnswerFile,
		StandardInputCheck:      c.StandardInputCheck,
		StandardOutputCheck:     c.StandardOutputCheck,
		InputFileName:           c.InputFileName,
		OutputFileName:          c.OutputFileName,
		SpecialJudgePath:        c.SpecialJudgePath,
		SpecialJudgeTimeLimitMs: c.SpecialJudgeTimeLimitMs,
		RealPrecision:           c.RealPrecision,
		FullScore:               c.FullScore,
		TimeLimitMs:             c.TimeLimitMs,
		MemoryLimitMiB:          c.MemoryLimitMiB,
		ExtraTimeRatio:          c.ExtraTimeRatio,
		CheckRejudgeMode:        c.CheckRejudge,
		Environment:             c.Environment,
	}

	if c.TaskType == "answers_only" {
		job.TaskType = judgejob.AnswersOnly
	} else {
		job.TaskType = judgejob.Traditional
	}

	switch c.ComparisonMode {
	case "real_number":
		job.ComparisonMode = judgejob.RealNumberMode
	case "special_judge":
		job.ComparisonMode = judgejob.SpecialJudgeMode
	default:
		job.ComparisonMode = judgejob.LineByLineMode
	}

	return job
}

type settings struct {
	dataPath string
}

func (s settings) DataPath() string { return s.dataPath }
