package logger

// Leveled adapts a Logger to the key/value leveled logging interface used by
// HTTP retry clients (Error/Info/Debug/Warn with alternating key-value pairs).
type Leveled struct {
	l *Logger
}

// Leveled returns the key/value adapter for l.
func (l *Logger) Leveled() *Leveled { return &Leveled{l: l} }

func (a *Leveled) Error(msg string, keysAndValues ...interface{}) {
	a.l.Error(msg, Fields(keysAndValues...))
}

func (a *Leveled) Info(msg string, keysAndValues ...interface{}) {
	a.l.Info(msg, Fields(keysAndValues...))
}

func (a *Leveled) Debug(msg string, keysAndValues ...interface{}) {
	a.l.Debug(msg, Fields(keysAndValues...))
}

func (a *Leveled) Warn(msg string, keysAndValues ...interface{}) {
	a.l.Warn(msg, Fields(keysAndValues...))
}
