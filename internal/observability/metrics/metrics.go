package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes reconciliation instruments.
type Metrics struct {
	uploads         metric.Int64Counter
	warnings        metric.Int64Counter
	reconciliations metric.Int64Counter
	reconciledCases metric.Int64Counter
	contactRows     metric.Int64Counter
	exports         metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "dunning"
	}
	meter := provider.Meter(name)

	uploads, err := meter.Int64Counter("dunning_uploads_total")
	if err != nil {
		return nil, err
	}
	warnings, err := meter.Int64Counter("dunning_normalization_warnings_total")
	if err != nil {
		return nil, err
	}
	reconciliations, err := meter.Int64Counter("dunning_reconciliations_total")
	if err != nil {
		return nil, err
	}
	reconciledCases, err := meter.Int64Counter("dunning_reconciled_cases_total")
	if err != nil {
		return nil, err
	}
	contactRows, err := meter.Int64Counter("dunning_contact_rows_total")
	if err != nil {
		return nil, err
	}
	exports, err := meter.Int64Counter("dunning_exports_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		uploads:         uploads,
		warnings:        warnings,
		reconciliations: reconciliations,
		reconciledCases: reconciledCases,
		contactRows:     contactRows,
		exports:         exports,
	}, nil
}

// RecordUpload counts a normalized table by kind and outcome.
func (m *Metrics) RecordUpload(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.uploads.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordWarnings adds count normalization warnings of one code.
func (m *Metrics) RecordWarnings(ctx context.Context, kind, code string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("code", strings.TrimSpace(code)),
	)
	m.warnings.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordReconciliation counts a cross-check run and the cases it produced.
func (m *Metrics) RecordReconciliation(ctx context.Context, outcome string, cases int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.reconciliations.Add(ctx, 1, metric.WithAttributes(attrs...))
	if cases > 0 {
		m.reconciledCases.Add(ctx, int64(cases))
	}
}

// RecordContactRows counts generated contact rows by classification.
func (m *Metrics) RecordContactRows(ctx context.Context, classification string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("classification", strings.TrimSpace(classification)))
	m.contactRows.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordExport counts a generated download by format.
func (m *Metrics) RecordExport(ctx context.Context, format string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("format", strings.TrimSpace(format)))
	m.exports.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"kind":           {},
	"code":           {},
	"outcome":        {},
	"classification": {},
	"format":         {},
	"status_code":    {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
