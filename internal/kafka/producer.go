package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"lumber-tickets/internal/config"
	"lumber-tickets/internal/models"
)

// Producer streams ticket change events for downstream reporting. Events are
// best-effort: callers log publish failures but never fail the request over
// them, since the database write has already committed.
type Producer struct {
	Writer *kafka.Writer
	Topics config.TopicConfig
}

func NewProducer(brokers []string, topics config.TopicConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Topics: topics}
}

// PublishTicketCreated streams the full created aggregate.
func (p *Producer) PublishTicketCreated(ticket models.TicketWithItems) error {
	return p.publish(p.Topics.TicketCreated, ticket.ID, ticket)
}

// PublishTicketUpdated streams the full replacement aggregate.
func (p *Producer) PublishTicketUpdated(ticket models.TicketWithItems) error {
	return p.publish(p.Topics.TicketUpdated, ticket.ID, ticket)
}

// PublishTicketDeleted streams the id of the removed ticket.
func (p *Producer) PublishTicketDeleted(ticketID string) error {
	payload := map[string]string{"id": ticketID}
	return p.publish(p.Topics.TicketDeleted, ticketID, payload)
}

func (p *Producer) publish(topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
