package telemetry

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentResty wraps every request made by client in a client span.
// Bodies are not recorded: upstream pages are large and response bodies
// are streamed.
//
// Spans end in the success hook rather than an after-response middleware:
// resty skips response middlewares for requests that set
// SetDoNotParseResponse, which is how the HTTP engine streams bodies.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(onBeforeRequest(tracer))
	client.OnSuccess(onSuccess)
	client.OnError(onError)
}

func onBeforeRequest(tracer trace.Tracer) resty.RequestMiddleware {
	return func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(req.Method),
				semconv.URLFull(req.URL),
			),
		)
		req.SetContext(ctx)
		return nil
	}
}

func onSuccess(_ *resty.Client, res *resty.Response) {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	span.SetAttributes(semconv.HTTPResponseStatusCode(res.StatusCode()))
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		// final URL after redirects
		span.SetAttributes(semconv.URLFull(res.RawResponse.Request.URL.String()))
	}
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, res.Status())
	}
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
