package judgeerr

// Code identifies a class of structural failure raised by the judging core
// itself. Judging outcomes (wrong answer, time limit exceeded, ...) are never
// represented as an error — they are values of verdict.ResultKind returned
// from a successful call. A Code is only raised when the core cannot even
// attempt to produce a verdict.
type Code int

const (
	Success Code = 10000

	// Caller-misuse and structural failures (10000-10099).
	InvalidParams Code = 10001
	InternalError Code = 10002
	Timeout       Code = 10003

	// Filesystem staging failures (10100-10199).
	StagingFailed   Code = 10100
	UnstagingFailed Code = 10101
	PathTraversal   Code = 10102
)

var messages = map[Code]string{
	Success:         "success",
	InvalidParams:   "invalid parameters",
	InternalError:   "internal error",
	Timeout:         "operation timed out",
	StagingFailed:   "failed to stage test case files",
	UnstagingFailed: "failed to clean up test case files",
	PathTraversal:   "resolved path escapes its base directory",
}

// Message returns the default message for the code.
func (c Code) Message() string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return "unknown error"
}
