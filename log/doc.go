// Package log provides the leveled logging interface used by the research pipeline.
//
// The default implementation wraps github.com/kataras/golog and writes to stderr with a
// "[stockresearch]" prefix. Callers can swap the package-level logger:
//
//	log.SetDefaultLogger(log.NewWriterLogger(file, log.LogLevelDebug))
//	log.Info("turn finished in %s", elapsed)
//
// NoOpLogger discards everything and is handy in tests.
package log
