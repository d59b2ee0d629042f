package log

import "context"

// Fields are structured key/value pairs attached to a log entry.
type Fields map[string]any

// Logger defines a standard interface for logging. Entries logged with a
// context carrying an active span get its trace and span ids.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	Error(ctx context.Context, msg string, err error, fields ...Fields)
	Fatal(ctx context.Context, msg string, err error, fields ...Fields) // exits the process
	With(fields Fields) Logger // Returns a new logger with added structured fields
}
