package filtercache

import "log/slog"

// Logger is the ambient logging seam used by the two "log a warning"
// sites spec §4.A/§4.B/§7 call out (duplicate resolver registration is
// logged by filter.Registry directly; expectedTotal and totalFiltered
// drift are logged here and in FilterPageMap). None of the teacher's own
// pagination code imports a logging library -- it leaves logging to
// callers -- so log/slog, the standard library's structured logger, is
// the ambient choice with no pack precedent to ground on (see
// DESIGN.md).
type Logger interface {
	Warn(msg string, args ...any)
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	L *slog.Logger
}

// Warn implements Logger.
func (s SlogLogger) Warn(msg string, args ...any) {
	l := s.L
	if l == nil {
		l = slog.Default()
	}
	l.Warn(msg, args...)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}
