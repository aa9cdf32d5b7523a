package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/resource-booking/internal/model"
)

// StartConsumer connects to RabbitMQ, declares the notification queue
// (durable) and consumes it forever.  Each message is dispatched by
// its status field.  The function runs a reconnect loop with
// exponential backoff and never returns under normal operation; a
// malformed message is rejected without requeue so a poison payload
// cannot wedge the queue.
func StartConsumer(url, queueName string, log zerolog.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("consumer: failed to dial broker")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, queueName, log); err != nil {
			log.Warn().Err(err).Msg("consumer: consume loop ended, reconnecting")
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, queueName string, log zerolog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, log); err != nil {
			log.Error().Err(err).Msg("consumer: handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handleMessage reacts to a single booking notification.  The switch
// on status is the hook point for confirmation mails, statistics or
// other integrations; today each outcome is recorded as a structured
// log line.
func handleMessage(body []byte, log zerolog.Logger) error {
	var n BookingNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	ev := log.Info().
		Uint64("booking_id", n.BookingID).
		Str("user_id", n.UserID).
		Uint64("resource_id", n.ResourceID).
		Str("start_time", n.StartTime).
		Str("end_time", n.EndTime).
		Str("total_price", n.TotalPrice)

	switch n.Status {
	case string(model.StatusConfirmed):
		ev.Msg("booking confirmed")
	case string(model.StatusCancelled):
		ev.Msg("booking cancelled")
	default:
		ev.Str("status", n.Status).Msg("booking status changed")
	}
	return nil
}
