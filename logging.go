package duotier

// traceLogger is the narrow logging seam the allocator core depends on,
// satisfied by *internal/logger.Logger. Keeping it local (rather than
// importing the logger package directly) lets this package stay
// dependency-free for callers who never want logging.
type traceLogger interface {
	Tracef(format string, args ...any)
}

func trace(l traceLogger, format string, args ...any) {
	if l == nil {
		return
	}
	l.Tracef(format, args...)
}
