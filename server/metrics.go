package server

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/gaborage/go-params/params"
)

const (
	metricValidations = "params.validations"
	metricDuration    = "params.validation.duration"

	outcomeValid   = "valid"
	outcomeInvalid = "invalid"
)

// validationMetrics counts validated requests by route and outcome.
type validationMetrics struct {
	validations metric.Int64Counter
	duration    metric.Float64Histogram
}

// newValidationMetrics creates the instruments on mp, or on the global
// meter provider when mp is nil. Instruments that cannot be created are
// replaced by no-ops.
func newValidationMetrics(mp metric.MeterProvider) *validationMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(tracerName)
	fallback := noop.NewMeterProvider().Meter(tracerName)

	validations, err := meter.Int64Counter(metricValidations,
		metric.WithDescription("Requests whose declared parameters were validated"),
		metric.WithUnit("{request}"))
	if err != nil {
		validations, _ = fallback.Int64Counter(metricValidations)
	}
	duration, err := meter.Float64Histogram(metricDuration,
		metric.WithDescription("Time spent validating declared parameters"),
		metric.WithUnit("ms"))
	if err != nil {
		duration, _ = fallback.Float64Histogram(metricDuration)
	}
	return &validationMetrics{validations: validations, duration: duration}
}

func (m *validationMetrics) record(ctx context.Context, route string, elapsed time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("http.route", route),
		attribute.String("params.outcome", outcomeValid),
	}
	if err != nil {
		attrs[1] = attribute.String("params.outcome", outcomeInvalid)
		attrs = append(attrs, attribute.String("params.error.kind", errorKind(err)))
	}
	set := metric.WithAttributes(attrs...)
	m.validations.Add(ctx, 1, set)
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), set)
}

// errorKind names the kind of the first parameter failure in err.
func errorKind(err error) string {
	var all params.Errors
	if errors.As(err, &all) && len(all) > 0 {
		return all[0].Kind.String()
	}
	var perr *params.Error
	if errors.As(err, &perr) {
		return perr.Kind.String()
	}
	return "transport"
}
