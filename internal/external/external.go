// Package external declares the interface the judging core consumes but
// does not implement for deployment settings, owned by the surrounding
// system that sits outside this module's scope. No task/comparison
// configuration interface is declared here; those values arrive as fields
// of judgejob.TestJob.
package external

// Settings exposes deployment-level configuration needed to resolve
// relative paths handed in on a TestJob, such as SpecialJudgePath.
type Settings interface {
	// DataPath is the root directory special-judge binaries are resolved
	// against.
	DataPath() string
}
