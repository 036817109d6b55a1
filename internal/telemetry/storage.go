package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stickfixbot/stickfix/internal/storage"
	"github.com/stickfixbot/stickfix/internal/types"
)

const storageScopeName = "github.com/stickfixbot/stickfix/storage"

// InstrumentedStore wraps storage.Store with OTel tracing and metrics.
// Every method gets a span and is counted in stickfix.storage.* metrics.
// Use WrapStore to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStore struct {
	inner  storage.Store
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapStore returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStore(s storage.Store) storage.Store {
	if !Enabled() {
		return s
	}
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("stickfix.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("stickfix.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("stickfix.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	return &InstrumentedStore{
		inner:  s,
		tracer: Tracer(storageScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStore) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStore) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// ── Users ───────────────────────────────────────────────────────────────────

func (s *InstrumentedStore) GetUser(ctx context.Context, id int64) (*types.User, error) {
	attrs := []attribute.KeyValue{attribute.Int64("stickfix.user.id", id)}
	ctx, span, t := s.op(ctx, "GetUser", attrs...)
	v, err := s.inner.GetUser(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) AddUser(ctx context.Context, u *types.User) (*types.User, error) {
	attrs := []attribute.KeyValue{attribute.Int64("stickfix.user.id", u.ID)}
	ctx, span, t := s.op(ctx, "AddUser", attrs...)
	v, err := s.inner.AddUser(ctx, u)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) SetUserState(ctx context.Context, id int64, state types.State) (types.State, error) {
	attrs := []attribute.KeyValue{
		attribute.Int64("stickfix.user.id", id),
		attribute.String("stickfix.user.state", string(state)),
	}
	ctx, span, t := s.op(ctx, "SetUserState", attrs...)
	v, err := s.inner.SetUserState(ctx, id, state)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) DeleteUser(ctx context.Context, id int64) (*types.User, error) {
	attrs := []attribute.KeyValue{attribute.Int64("stickfix.user.id", id)}
	ctx, span, t := s.op(ctx, "DeleteUser", attrs...)
	v, err := s.inner.DeleteUser(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) SetPrivateMode(ctx context.Context, id int64, enabled bool) (bool, error) {
	attrs := []attribute.KeyValue{
		attribute.Int64("stickfix.user.id", id),
		attribute.Bool("stickfix.mode.enabled", enabled),
	}
	ctx, span, t := s.op(ctx, "SetPrivateMode", attrs...)
	v, err := s.inner.SetPrivateMode(ctx, id, enabled)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) SetShuffleMode(ctx context.Context, id int64, enabled bool) (bool, error) {
	attrs := []attribute.KeyValue{
		attribute.Int64("stickfix.user.id", id),
		attribute.Bool("stickfix.mode.enabled", enabled),
	}
	ctx, span, t := s.op(ctx, "SetShuffleMode", attrs...)
	v, err := s.inner.SetShuffleMode(ctx, id, enabled)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Stickers ────────────────────────────────────────────────────────────────

func (s *InstrumentedStore) AddSticker(ctx context.Context, ownerID int64, stickerID string, tags []string) error {
	attrs := []attribute.KeyValue{
		attribute.Int64("stickfix.user.id", ownerID),
		attribute.Int("stickfix.tag.count", len(tags)),
	}
	ctx, span, t := s.op(ctx, "AddSticker", attrs...)
	err := s.inner.AddSticker(ctx, ownerID, stickerID, tags)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStore) GetSticker(ctx context.Context, tag string) (*types.Sticker, error) {
	attrs := []attribute.KeyValue{attribute.String("stickfix.tag", tag)}
	ctx, span, t := s.op(ctx, "GetSticker", attrs...)
	v, err := s.inner.GetSticker(ctx, tag)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Meta ────────────────────────────────────────────────────────────────────

// The key value is never recorded as a span attribute.

func (s *InstrumentedStore) APIKey(ctx context.Context) (string, error) {
	ctx, span, t := s.op(ctx, "APIKey")
	v, err := s.inner.APIKey(ctx)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedStore) PutAPIKey(ctx context.Context, key string) error {
	ctx, span, t := s.op(ctx, "PutAPIKey")
	err := s.inner.PutAPIKey(ctx, key)
	s.done(ctx, span, t, err)
	return err
}

// ── Lifecycle ───────────────────────────────────────────────────────────────

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
