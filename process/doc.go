// Package process runs subprocesses, either directly with Run or as
// pipeline commands whose raw response is the process's stdout.
//
// A non-zero exit is an *ExitError carrying the exit code and a stderr
// excerpt. Cancellation signals the whole process group with SIGTERM and
// escalates to SIGKILL after the grace period.
package process
