package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Spans started by handlers must join the request span created by otelmux,
// which in turn continues an incoming traceparent.
func TestRouterSpansJoinIncomingTrace(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := mux.NewRouter()
	r.Use(otelmux.Middleware(ServiceName))
	r.HandleFunc("/api/public/health/", func(w http.ResponseWriter, r *http.Request) {
		_, span := StartSpan(r.Context(), "health.check")
		span.End()
		w.WriteHeader(http.StatusOK)
	})

	const incomingTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"

	tests := []struct {
		name        string
		traceParent string
	}{
		{name: "new trace"},
		{name: "continued trace", traceParent: "00-" + incomingTraceID + "-00f067aa0ba902b7-01"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest(http.MethodGet, "/api/public/health/", nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			require.Equal(t, http.StatusOK, rr.Code)

			require.NoError(t, tp.ForceFlush(context.Background()))
			spans := exporter.GetSpans()
			require.Len(t, spans, 2)

			var child, server tracetest.SpanStub
			for _, s := range spans {
				if s.Name == "health.check" {
					child = s
				} else {
					server = s
				}
			}
			assert.Equal(t, server.SpanContext.TraceID(), child.SpanContext.TraceID())
			assert.Equal(t, server.SpanContext.SpanID(), child.Parent.SpanID())
			if tt.traceParent != "" {
				assert.Equal(t, incomingTraceID, server.SpanContext.TraceID().String())
			}
		})
	}
}
