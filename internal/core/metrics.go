package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names and dimensions emitted by the API chassis.
const (
	metricAPIRequestCount = "APIRequestCount"
	metricAPILatency      = "APILatency"

	dimMethod   = "Method"
	dimEndpoint = "Endpoint"
	dimStatus   = "Status"
)

// metricFlushTimeout bounds the PutMetricData call so a slow CloudWatch
// endpoint cannot stall request handling.
const metricFlushTimeout = 2 * time.Second

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Compile-time assertion that CloudWatchMetrics implements MetricsCollector.
var _ MetricsCollector = (*CloudWatchMetrics)(nil)

// CloudWatchMetrics implements MetricsCollector by emitting request count and
// latency metrics to AWS CloudWatch.
//
// Metrics emitted per request:
//   - APIRequestCount: Dims {Method, Endpoint, Status}
//   - APILatency:      Dims {Method, Endpoint} -- milliseconds
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics that publishes to the
// specified CloudWatch namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordRequest emits count and latency metrics for a completed API request.
// Failures are logged and swallowed; metrics must never fail a request.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), metricFlushTimeout)
	defer cancel()

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricAPIRequestCount),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String(dimMethod), Value: aws.String(method)},
					{Name: aws.String(dimEndpoint), Value: aws.String(endpoint)},
					{Name: aws.String(dimStatus), Value: aws.String(status)},
				},
			},
			{
				MetricName: aws.String(metricAPILatency),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String(dimMethod), Value: aws.String(method)},
					{Name: aws.String(dimEndpoint), Value: aws.String(endpoint)},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record request metrics",
			"error", err,
			"method", method,
			"endpoint", endpoint,
			"status", status,
		)
	}
}
