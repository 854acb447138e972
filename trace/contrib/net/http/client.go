package http

import (
	"net/http"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer"
)

type Config struct {
	operationNameGetter func(req *http.Request) string
}

type Option func(*Config)

// WithOperationNameGetter overrides how the client span is named from the
// outgoing request.
func WithOperationNameGetter(f func(req *http.Request) string) Option {
	return func(cfg *Config) {
		if f != nil {
			cfg.operationNameGetter = f
		}
	}
}

func newDefaultConfig() *Config {
	return &Config{
		operationNameGetter: func(req *http.Request) string {
			return "HTTP " + req.Method
		},
	}
}

type roundTripper struct {
	cfg    *Config
	tracer *orbittracer.Tracer
	base   http.RoundTripper
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return rt.base.RoundTrip(req)
	}
	span, ctx := orbittracer.StartSpanFromContext(req.Context(), rt.tracer, rt.cfg.operationNameGetter(req))
	defer span.Finish()
	span.SetTag("http.method", req.Method)
	if req.URL != nil {
		span.SetTag("http.url", req.URL.String())
	}
	req = req.WithContext(ctx)
	_ = rt.tracer.Inject(span.Context(), orbittracer.HTTPHeaders, orbittracer.HTTPHeadersCarrier(req.Header))
	res, err := rt.base.RoundTrip(req)
	if err != nil {
		span.SetTag("error", true)
		span.LogKV("event", "error", "message", err.Error())
		return res, err
	}
	span.SetTag("http.status_code", res.StatusCode)
	if res.StatusCode >= http.StatusInternalServerError {
		span.SetTag("error", true)
	}
	return res, nil
}

// WrapClient instruments the client so every request carries a child span and
// the propagation headers.
func WrapClient(c *http.Client, tracer *orbittracer.Tracer, opts ...Option) *http.Client {
	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}
	cfg := newDefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	c.Transport = &roundTripper{
		cfg:    cfg,
		tracer: tracer,
		base:   c.Transport,
	}
	return c
}
