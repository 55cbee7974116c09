package logging

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"
)

// RecoverPanic is deferred at the top of goroutines. It logs the panic,
// writes the stack to a ghosttext-panic-*.log file in the working directory
// and runs cleanup.
func RecoverPanic(name string, cleanup func()) {
	r := recover()
	if r == nil {
		return
	}
	slog.Error("Recovered from panic", "goroutine", name, "panic", fmt.Sprint(r))

	filename := fmt.Sprintf("ghosttext-panic-%s-%s.log", name, time.Now().Format("20060102-150405"))
	if file, err := os.Create(filename); err != nil {
		slog.Error("Failed to create panic log file", "path", filename, "error", err)
	} else {
		fmt.Fprintf(file, "Panic in %s: %v\n\n", name, r)
		fmt.Fprintf(file, "Time: %s\n\n", time.Now().Format(time.RFC3339))
		fmt.Fprintf(file, "Stack Trace:\n%s\n", debug.Stack())
		file.Close()
		slog.Info("Panic details written", "path", filename)
	}

	if cleanup != nil {
		cleanup()
	}
}
