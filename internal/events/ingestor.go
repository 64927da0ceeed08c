package events

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Merethin/Windstorm/internal/game"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// exchangeName is the topic exchange carrying NationStates happenings.
	exchangeName = "akari_events"
	// routingKey selects movement events only.
	routingKey = "move"
	// baseBackoff is the initial backoff duration for reconnection.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff for reconnection.
	maxBackoff = 2 * time.Minute
)

// Ingestor maintains a long-lived subscription to the move-event topic and
// feeds matched events into session state. Each instance declares its own
// exclusive auto-delete queue, so every running bot receives the full stream
// (fan-out, not competing consumers). Connection loss triggers reconnection
// with a fresh queue; events published during the outage are lost, which is
// acceptable for a live game.
type Ingestor struct {
	url      string
	registry *game.Registry

	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// IngestorOpts holds parameters for creating an Ingestor.
type IngestorOpts struct {
	URL      string // AMQP broker URL
	Registry *game.Registry
}

// NewIngestor creates an Ingestor.
func NewIngestor(opts IngestorOpts) (*Ingestor, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("events: broker url is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("events: registry is required")
	}
	return &Ingestor{
		url:         opts.URL,
		registry:    opts.Registry,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
	}, nil
}

// Run consumes move events until the context is cancelled. Connection or
// channel failures are logged and retried with exponential backoff; a
// successful consume session resets the backoff.
func (in *Ingestor) Run(ctx context.Context) error {
	attempt := 0
	for {
		start := time.Now()
		err := in.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Printf("events: consume: %v", err)
		}

		// A session that survived past the backoff ceiling counts as healthy.
		if time.Since(start) > in.maxBackoff {
			attempt = 0
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * in.baseBackoff
		if wait > in.maxBackoff {
			wait = in.maxBackoff
		} else {
			attempt++
		}
		log.Printf("events: reconnecting in %v", wait)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// consume runs one broker session: dial, declare, bind, and pump deliveries
// until the connection drops or the context is cancelled.
func (in *Ingestor) consume(ctx context.Context) error {
	conn, err := amqp.Dial(in.url)
	if err != nil {
		return fmt.Errorf("events: dial broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("events: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "topic", false, false, false, false, nil); err != nil {
		return fmt.Errorf("events: declare exchange: %w", err)
	}

	// Server-named, exclusive, auto-delete: the queue lives and dies with
	// this connection.
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("events: declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, routingKey, exchangeName, false, nil); err != nil {
		return fmt.Errorf("events: bind queue: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("events: consume queue: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	log.Printf("events: subscribed to %s/%s (queue %s)", exchangeName, routingKey, q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			if amqpErr == nil {
				return fmt.Errorf("events: connection closed")
			}
			return fmt.Errorf("events: connection closed: %w", amqpErr)
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("events: delivery channel closed")
			}
			in.handleDelivery(d.Body)
		}
	}
}

// handleDelivery decodes one message and correlates it against every active
// session. A malformed payload drops that message only; the loop continues.
func (in *Ingestor) handleDelivery(body []byte) {
	event, err := DecodeMove(body)
	if err != nil {
		log.Printf("events: dropping message: %v", err)
		return
	}

	in.registry.ForEach(func(guildID string, s *game.Session) {
		if userID, ok := s.RecordMove(event.Actor, event.Destination, event.Time, event.EventID); ok {
			log.Printf("events: [id %d, time %d] %s moved to %s (user %s, guild %s)",
				event.EventID, event.Time, event.Actor, event.Destination, userID, guildID)
		}
	})
}
