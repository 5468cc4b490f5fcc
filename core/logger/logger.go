package logger

// Logger exposes logging methods for common severity levels. Every
// coordination component receives one at construction; there are no
// package-level loggers.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
