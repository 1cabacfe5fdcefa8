/*
 * Copyright 2024 CeresDB Project Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ceresdb

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ceresdb/ceresdb-client-go"

// Telemetry configures OpenTelemetry instrumentation of a Client. Nil
// providers resolve to the global ones at build time.
type Telemetry struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

type instruments struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
	points   metric.Int64Counter
}

func newInstruments(t Telemetry) *instruments {
	if t.TracerProvider == nil {
		t.TracerProvider = otel.GetTracerProvider()
	}
	if t.MeterProvider == nil {
		t.MeterProvider = otel.GetMeterProvider()
	}
	meter := t.MeterProvider.Meter(instrumentationName)

	in := &instruments{tracer: t.TracerProvider.Tracer(instrumentationName)}
	var err error
	if in.requests, err = meter.Int64Counter("ceresdb.client.requests",
		metric.WithUnit("{request}"),
		metric.WithDescription("Number of RPC calls"),
	); err != nil {
		otel.Handle(err)
	}
	if in.duration, err = meter.Float64Histogram("ceresdb.client.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of RPC calls"),
	); err != nil {
		otel.Handle(err)
	}
	if in.points, err = meter.Int64Counter("ceresdb.client.points",
		metric.WithUnit("{point}"),
		metric.WithDescription("Points reported by write calls, by outcome"),
	); err != nil {
		otel.Handle(err)
	}
	return in
}

// start opens a client span for method. The returned func ends it and
// records the call metrics.
func (in *instruments) start(ctx context.Context, method string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	begin := time.Now()
	attrs = append(attrs,
		attribute.String("rpc.system", "grpc"),
		attribute.String("rpc.method", method),
	)
	ctx, span := in.tracer.Start(ctx, "ceresdb."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = errorOutcome(err)
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("ceresdb.outcome", outcome))
		span.End()

		set := metric.WithAttributes(
			attribute.String("rpc.method", method),
			attribute.String("ceresdb.outcome", outcome),
		)
		if in.requests != nil {
			in.requests.Add(ctx, 1, set)
		}
		if in.duration != nil {
			in.duration.Record(ctx, time.Since(begin).Seconds(), set)
		}
	}
}

func (in *instruments) recordWrite(ctx context.Context, resp *WriteResponse) {
	if in.points == nil || resp == nil {
		return
	}
	in.points.Add(ctx, int64(resp.Success), metric.WithAttributes(attribute.String("ceresdb.outcome", "success")))
	in.points.Add(ctx, int64(resp.Failed), metric.WithAttributes(attribute.String("ceresdb.outcome", "failed")))
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("ceresdb.write.success", int64(resp.Success)),
		attribute.Int64("ceresdb.write.failed", int64(resp.Failed)),
	)
}

func errorOutcome(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.String()
	}
	return "error"
}
