// Package telemetry holds the metrics reported by the query engine's
// /metrics endpoint.
package telemetry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Format selects the metrics representation returned by the engine.
type Format string

const (
	FormatJSON       Format = "json"
	FormatPrometheus Format = "prometheus"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f == FormatJSON || f == FormatPrometheus
}

// Metrics is the JSON form of the engine metrics.
type Metrics struct {
	Counters   []Metric[int64]     `json:"counters"`
	Gauges     []Metric[float64]   `json:"gauges"`
	Histograms []Metric[Histogram] `json:"histograms"`
}

// Metric is a single labelled value.
type Metric[T any] struct {
	Key         string            `json:"key"`
	Value       T                 `json:"value"`
	Labels      map[string]string `json:"labels"`
	Description string            `json:"description"`
}

// Histogram is a bucketed distribution.
type Histogram struct {
	Sum     float64  `json:"sum"`
	Count   int64    `json:"count"`
	Buckets []Bucket `json:"buckets"`
}

// Bucket is a cumulative histogram bucket, encoded as [max, count].
type Bucket struct {
	MaxValue   float64
	TotalCount int64
}

// MarshalJSON encodes the bucket as a two element array.
func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{b.MaxValue, b.TotalCount})
}

// UnmarshalJSON decodes a two element array.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var pair []json.Number
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("histogram bucket: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("histogram bucket: expected 2 elements, got %d", len(pair))
	}
	maxValue, err := pair[0].Float64()
	if err != nil {
		return fmt.Errorf("histogram bucket max: %w", err)
	}
	count, err := pair[1].Int64()
	if err != nil {
		f, ferr := pair[1].Float64()
		if ferr != nil {
			return fmt.Errorf("histogram bucket count: %w", err)
		}
		count = int64(f)
	}
	b.MaxValue, b.TotalCount = maxValue, count
	return nil
}

// Parse decodes the JSON metrics body.
func Parse(data []byte) (*Metrics, error) {
	var m Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Counter returns the counter named key.
func (m *Metrics) Counter(key string) (Metric[int64], bool) {
	return find(m.Counters, key)
}

// Gauge returns the gauge named key.
func (m *Metrics) Gauge(key string) (Metric[float64], bool) {
	return find(m.Gauges, key)
}

// Histogram returns the histogram named key.
func (m *Metrics) Histogram(key string) (Metric[Histogram], bool) {
	return find(m.Histograms, key)
}

func find[T any](metrics []Metric[T], key string) (Metric[T], bool) {
	for _, m := range metrics {
		if m.Key == key {
			return m, true
		}
	}
	var zero Metric[T]
	return zero, false
}

// Row is one flattened line used by tabular output.
type Row struct {
	Kind        string
	Key         string
	Value       string
	Labels      string
	Description string
}

// Rows flattens the metrics, sorted by kind then key.
func (m *Metrics) Rows() []Row {
	var rows []Row
	for _, c := range m.Counters {
		rows = append(rows, Row{"counter", c.Key, fmt.Sprintf("%d", c.Value), formatLabels(c.Labels), c.Description})
	}
	for _, g := range m.Gauges {
		rows = append(rows, Row{"gauge", g.Key, fmt.Sprintf("%g", g.Value), formatLabels(g.Labels), g.Description})
	}
	for _, h := range m.Histograms {
		v := fmt.Sprintf("count=%d sum=%g", h.Value.Count, h.Value.Sum)
		rows = append(rows, Row{"histogram", h.Key, v, formatLabels(h.Labels), h.Description})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + labels[k]
	}
	return strings.Join(parts, ",")
}
