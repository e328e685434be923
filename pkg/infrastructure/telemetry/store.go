package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vsinha/printcenter/pkg/domain/repositories"
)

const storageScopeName = instrumentationScope + "/storage"

// InstrumentedStore wraps a repositories.Store so every transaction is a span
type InstrumentedStore struct {
	inner  repositories.Store
	tracer trace.Tracer
	driver string
}

// WrapStore decorates s with tracing. driver is recorded as db.system.
func WrapStore(s repositories.Store, driver string) *InstrumentedStore {
	return &InstrumentedStore{inner: s, tracer: Tracer(storageScopeName), driver: driver}
}

var _ repositories.Store = (*InstrumentedStore)(nil)

func (s *InstrumentedStore) View(ctx context.Context, fn func(repositories.Tx) error) error {
	ctx, span := s.start(ctx, "view")
	err := s.inner.View(ctx, fn)
	done(span, err)
	return err
}

func (s *InstrumentedStore) Update(ctx context.Context, fn func(repositories.Tx) error) error {
	ctx, span := s.start(ctx, "update")
	err := s.inner.Update(ctx, fn)
	done(span, err)
	return err
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}

func (s *InstrumentedStore) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "store."+op,
		trace.WithAttributes(
			attribute.String("db.operation", op),
			attribute.String("db.system", s.driver),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func done(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
