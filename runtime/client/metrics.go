package client

import (
	"context"

	"github.com/satishbabariya/prisma-engine-go/telemetry"
)

// Metrics fetches and parses the engine metrics. labels are attached to
// every metric as global labels.
func (c *Client) Metrics(ctx context.Context, labels map[string]string) (*telemetry.Metrics, error) {
	raw, err := c.core.engine.Metrics(ctx, telemetry.FormatJSON, labels)
	if err != nil {
		return nil, err
	}
	return telemetry.Parse(raw)
}

// PrometheusMetrics returns the engine metrics in the Prometheus text
// format.
func (c *Client) PrometheusMetrics(ctx context.Context, labels map[string]string) (string, error) {
	raw, err := c.core.engine.Metrics(ctx, telemetry.FormatPrometheus, labels)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
