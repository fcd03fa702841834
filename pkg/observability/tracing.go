package observability

import (
	"context"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer provides distributed tracing capabilities
type Tracer struct {
	serviceName string
}

// NewTracer creates a new tracer instance
func NewTracer(serviceName string) *Tracer {
	return &Tracer{
		serviceName: serviceName,
	}
}

// StartSubsegment starts a new subsegment within an existing segment
func (t *Tracer) StartSubsegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	return xray.BeginSubsegment(ctx, name)
}

// Middleware opens an X-Ray segment per HTTP request
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	return xray.Handler(xray.NewFixedSegmentNamer(t.serviceName), next)
}

// TraceFunction wraps a function with tracing. Outside an active segment,
// as in local runs and tests, fn runs untraced.
func (t *Tracer) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	if t == nil || xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}

	ctx, seg := t.StartSubsegment(ctx, t.serviceName+"."+name)
	defer seg.Close(nil)

	seg.AddAnnotation("operation", name)
	err := fn(ctx)
	if err != nil {
		seg.AddError(err)
	}

	return err
}
