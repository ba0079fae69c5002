// Package log provides a simple, leveled logging interface for minirag.
//
// Every minirag component takes a Logger; passing nil selects the
// package-level default. Two implementations ship with the module: a
// DefaultLogger over Go's standard log package and a thin wrapper around
// github.com/kataras/golog for users who already configure golog.
//
// # Log Levels
//
// Five levels, in order of increasing severity:
//
//   - LogLevelDebug: detailed debugging information (chunk skips, batch sizes)
//   - LogLevelInfo: normal operation (ingestion progress, query timing)
//   - LogLevelWarn: recoverable issues (dropped URLs, missing index)
//   - LogLevelError: failures that abort an operation
//   - LogLevelNone: disables all output
//
// # Example Usage
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Info("ingested %d chunks", n)
//
// With golog:
//
//	glogger := golog.New()
//	glogger.SetPrefix("[minirag] ")
//	logger := log.NewGologLogger(glogger)
//	logger.SetLevel(log.LogLevelDebug)
//
// Custom destinations go through NewCustomLogger:
//
//	f, _ := os.OpenFile("rag.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
//	logger := log.NewCustomLogger(f, log.LogLevelWarn)
//
// The DefaultLogger is safe for concurrent use; the standard library's
// log.Logger handles synchronization internally.
package log
