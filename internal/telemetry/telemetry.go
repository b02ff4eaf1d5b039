package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Setup 初始化全局的 MeterProvider，指标定期输出到标准输出
// 未启用时保持默认的 noop 实现，返回的 shutdown 什么都不做
func Setup(cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.Telemetry.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}

	interval := time.Duration(cfg.Telemetry.ExportInterval) * time.Second
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)

	return func(ctx context.Context) error {
		return errors.Join(provider.ForceFlush(ctx), provider.Shutdown(ctx))
	}, nil
}
