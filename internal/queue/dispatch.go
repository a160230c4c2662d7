// Package queue provides the SQS-based producer that announces severe-weather
// routes to the downstream notification pipeline.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"routecast/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SevereWeatherMessage is the wire format consumed by the notification
// workers. Departure is UTC.
type SevereWeatherMessage struct {
	MessageID   string    `json:"message_id"`
	RouteID     string    `json:"route_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   time.Time `json:"departure"`
}

// Dispatcher implements types.DispatchPublisher on top of SQS. Publishing is
// best-effort from the caller's perspective; a failed send must never fail
// the route request that triggered it.
type Dispatcher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

var _ types.DispatchPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher sending to the given queue URL.
func NewDispatcher(client SQSSender, queueURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// PublishSevereWeather serializes the announcement and sends it to the
// dispatch queue.
func (d *Dispatcher) PublishSevereWeather(ctx context.Context, routeID string, origin, destination string, departure time.Time) error {
	msg := SevereWeatherMessage{
		MessageID:   uuid.New().String(),
		RouteID:     routeID,
		Origin:      origin,
		Destination: destination,
		Departure:   departure.UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal severe weather message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(d.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"reason": {
				DataType:    aws.String("String"),
				StringValue: aws.String("severe_weather"),
			},
		},
	}

	_, err = d.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("queue: failed to send severe weather message to %s: %w", d.queueURL, err)
	}

	d.logger.InfoContext(ctx, "severe weather message sent",
		"queue_url", d.queueURL,
		"message_id", msg.MessageID,
		"route_id", routeID,
		"origin", origin,
		"destination", destination,
	)

	return nil
}
