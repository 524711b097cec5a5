package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/contracts"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Producer is stamped on every envelope this process publishes.
const Producer = "ride-tracker"

// ViewPublisher broadcasts reconciled trip views on the fanout exchange.
type ViewPublisher struct {
	Client *Client
	now    func() time.Time
}

// NewViewPublisher constructs a ViewPublisher using the provided RabbitMQ client.
func NewViewPublisher(client *Client) *ViewPublisher {
	return &ViewPublisher{Client: client, now: time.Now}
}

// Name identifies the sink in logs.
func (publisher *ViewPublisher) Name() string { return "rabbitmq" }

// Publish sends the view (or a cleared marker when view is nil) to every bound queue.
func (publisher *ViewPublisher) Publish(ctx context.Context, riderID string, view *trip.View) error {
	msg := NewTripViewMessage(riderID, view, publisher.now())
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal trip view: %w", err)
	}
	return publisher.Client.PublishMessage(contracts.ExchangeTripViewFanout, "", body)
}

// NewTripViewMessage maps a view onto its wire shape.
func NewTripViewMessage(riderID string, view *trip.View, at time.Time) contracts.TripViewMessage {
	msg := contracts.TripViewMessage{
		RiderID: riderID,
		Envelope: contracts.Envelope{
			CorrelationID: uuid.NewString(),
			Producer:      Producer,
			SentAt:        at.UTC(),
		},
	}
	if view == nil {
		msg.Cleared = true
		return msg
	}
	msg.TripID = view.TripID
	msg.DriverID = view.DriverID
	msg.Position = contracts.GeoPoint{Lat: view.TargetPosition.Lat, Lng: view.TargetPosition.Lng}
	msg.RoutePhase = string(view.RoutePhase)
	msg.StatusText = view.StatusText
	return msg
}

// PublishMessage publishes JSON messages with persistence and AMQP.
func (client *Client) PublishMessage(exchange, routingKey string, body []byte) error {
	client.mu.RLock()
	ch := client.pubChan
	conn := client.conn
	client.mu.RUnlock()

	// quick fail if no channel
	if conn == nil || conn.IsClosed() {
		return errors.New("rabbitmq: connection is not open")
	}
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	client.pubMu.Lock()
	defer client.pubMu.Unlock()
	confirms := client.pubConfirms

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ch.PublishWithContext(ctx, exchange, routingKey, true /* mandatory */, false, /* immediate */
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	); err != nil {
		return err
	}

	select {
	case c := <-confirms:
		if !c.Ack {
			return fmt.Errorf("rabbitmq: publish not acknowledged")
		}
	case <-ctx.Done():
		// keep the confirm stream aligned: try to consume exactly one confirm even if we return a timeout to the caller
		select {
		case c := <-confirms:
			// if we got a confirm now, return an error if it was a nack
			if !c.Ack {
				return fmt.Errorf("rabbitmq: publish not acknowledged after timeout")
			}
		case <-time.After(2 * time.Second):
			// give up trying to read from the confirms channel
		}

		// return the original context error
		return ctx.Err()
	}

	return nil
}
