package http

import (
	"net/http"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer"
)

// statusRecorder captures the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// NewMiddleware wraps a handler so each request runs under a server span.
// An extractable context in the request headers continues that trace; a
// jaeger-debug-id header with no trace starts a forced one.
func NewMiddleware(tracer *orbittracer.Tracer, handler http.Handler, opts ...Option) http.Handler {
	cfg := newDefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startOpts := []orbittracer.StartSpanOption{}
		if parent, err := tracer.Extract(orbittracer.HTTPHeaders, orbittracer.HTTPHeadersCarrier(r.Header)); err == nil {
			startOpts = append(startOpts, orbittracer.ChildOf(parent))
		}
		span := tracer.StartSpan(cfg.operationNameGetter(r), startOpts...)
		defer span.Finish()
		span.SetTag("http.method", r.Method)
		span.SetTag("http.url", r.URL.Path)

		recorder := &statusRecorder{ResponseWriter: w}
		handler.ServeHTTP(recorder, r.WithContext(orbittracer.ContextWithSpan(r.Context(), span)))

		if recorder.status == 0 {
			recorder.status = http.StatusOK
		}
		span.SetTag("http.status_code", recorder.status)
		if recorder.status >= http.StatusInternalServerError {
			span.SetTag("error", true)
		}
	})
}
