package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatch) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestCloudWatchMetricsRecordRequest(t *testing.T) {
	client := &mockCloudWatch{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewCloudWatchMetrics(client, "Routecast", logger)

	m.RecordRequest("POST", "/v1/routes/weather", "200", 150*time.Millisecond)

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "Routecast", *input.Namespace)
	require.Len(t, input.MetricData, 2)

	count := input.MetricData[0]
	assert.Equal(t, "APIRequestCount", *count.MetricName)
	assert.Equal(t, 1.0, *count.Value)
	require.Len(t, count.Dimensions, 3)

	latency := input.MetricData[1]
	assert.Equal(t, "APILatency", *latency.MetricName)
	assert.Equal(t, 150.0, *latency.Value)
}

func TestCloudWatchMetricsSwallowsErrors(t *testing.T) {
	client := &mockCloudWatch{err: errors.New("throttled")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewCloudWatchMetrics(client, "Routecast", logger)

	// Must not panic or propagate the failure.
	m.RecordRequest("GET", "/health", "200", time.Millisecond)

	assert.Len(t, client.inputs, 1)
}
