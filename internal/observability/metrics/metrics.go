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

// Metrics exposes application-level instruments.
type Metrics struct {
	featuresBuilt  metric.Int64Counter
	treeExpansions metric.Int64Counter
	projectWrites  metric.Int64Counter
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

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "urban-api"
	}
	meter := provider.Meter(name)

	featuresBuilt, err := meter.Int64Counter("urbanapi_features_built_total")
	if err != nil {
		return nil, err
	}
	treeExpansions, err := meter.Int64Counter("urbanapi_tree_expansions_total")
	if err != nil {
		return nil, err
	}
	projectWrites, err := meter.Int64Counter("urbanapi_project_writes_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		featuresBuilt:  featuresBuilt,
		treeExpansions: treeExpansions,
		projectWrites:  projectWrites,
	}, nil
}

// RecordFeaturesBuilt adds to the feature build count for an entity kind.
func (m *Metrics) RecordFeaturesBuilt(ctx context.Context, entity string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.featuresBuilt.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("entity", strings.TrimSpace(entity)),
	))
}

// RecordTreeExpansion counts one frontier batch of the territory traversal.
func (m *Metrics) RecordTreeExpansion(ctx context.Context) {
	if m == nil {
		return
	}
	m.treeExpansions.Add(ctx, 1)
}

// RecordProjectWrite counts project mutations by operation.
func (m *Metrics) RecordProjectWrite(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.projectWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
	))
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
