package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer"
)

// Hook stamps trace_id and span_id fields on entries logged with a context
// that carries an active span, so log lines can be joined with traces.
type Hook struct {
	levels []logrus.Level
}

func NewHook(levels []logrus.Level) *Hook {
	if len(levels) == 0 {
		levels = logrus.AllLevels
	}
	return &Hook{levels: levels}
}

func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

func (h *Hook) Fire(e *logrus.Entry) error {
	if e == nil || e.Context == nil {
		return nil
	}
	span := orbittracer.SpanFromContext(e.Context)
	if span == nil {
		return nil
	}
	sc := span.Context()
	e.Data["trace_id"] = sc.TraceID().String()
	e.Data["span_id"] = sc.SpanID().String()
	return nil
}
