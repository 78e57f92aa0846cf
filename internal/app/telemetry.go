package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/rxportal/patientkit/pkg/config"
	"github.com/rxportal/patientkit/pkg/httpserver"
	"github.com/rxportal/patientkit/pkg/opensearch"
	"github.com/rxportal/patientkit/pkg/telemetry"
)

const tracerName = "github.com/rxportal/patientkit"

type sinks struct {
	sink   telemetry.Sink
	checks []httpserver.Check
	close  []func(context.Context) error
}

// openSinks always logs telemetry and adds the tracing and search sinks when
// enabled.
func openSinks(ctx context.Context, cfg Config, log *slog.Logger, traceOut io.Writer, loadOpts ...config.Option) (*sinks, error) {
	out := &sinks{}
	list := []telemetry.Sink{telemetry.NewLogSink(log)}

	if cfg.TraceEnabled {
		tp, err := newTracerProvider(ctx, cfg, traceOut)
		if err != nil {
			return nil, errors.Join(ErrOpenSink, err)
		}
		list = append(list, telemetry.NewTraceSink(tp.Tracer(tracerName)))
		out.close = append(out.close, tp.Shutdown)
	}

	if cfg.SearchEnabled {
		var oc opensearch.Config
		if err := config.Load(&oc, loadOpts...); err != nil {
			_ = out.shutdown(ctx)
			return nil, errors.Join(ErrOpenSink, err)
		}
		client, err := opensearch.New(ctx, oc)
		if err != nil {
			_ = out.shutdown(ctx)
			return nil, errors.Join(ErrOpenSink, err)
		}
		ss := telemetry.NewSearchSink(opensearch.NewIndexer(client), cfg.Search, log)
		list = append(list, ss)
		out.checks = append(out.checks, httpserver.Check{Name: "opensearch", Fn: opensearch.Healthcheck(client)})
		out.close = append(out.close, func(context.Context) error { return ss.Close() })
	}

	out.sink = telemetry.Multi(list...)
	return out, nil
}

func (s *sinks) shutdown(ctx context.Context) error {
	var err error
	for i := len(s.close) - 1; i >= 0; i-- {
		err = errors.Join(err, s.close[i](ctx))
	}
	return err
}

func newTracerProvider(ctx context.Context, cfg Config, w io.Writer) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Name),
			attribute.String("deployment.environment", cfg.Env),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}
