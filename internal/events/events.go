// Package events publishes booking lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rental-storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// TypeBookingPlaced identifies a booking-placed event.
const TypeBookingPlaced = "booking.placed"

// BookingPlaced is the payload published once a booking group is written.
type BookingPlaced struct {
	Type       string              `json:"type"`
	GroupID    uuid.UUID           `json:"groupId"`
	SessionID  string              `json:"sessionId"`
	Annual     bool                `json:"annual"`
	Dates      []string            `json:"dates"`
	Items      map[string]int      `json:"items"`
	CouponCode *string             `json:"couponCode,omitempty"`
	Total      decimal.NullDecimal `json:"total"`
	PlacedAt   time.Time           `json:"placedAt"`
	Bookings   []uuid.UUID         `json:"bookingIds"`
}

// NewBookingPlaced summarises a booking group. records must be non-empty
// and ordered by sequence.
func NewBookingPlaced(records []model.Booking) BookingPlaced {
	first := records[0]
	ev := BookingPlaced{
		Type:       TypeBookingPlaced,
		GroupID:    first.GroupID,
		SessionID:  first.SessionID,
		Annual:     first.Annual,
		Dates:      make([]string, 0, len(records)),
		Items:      first.Items,
		CouponCode: first.CouponCode,
		Total:      first.Total,
		PlacedAt:   first.CreatedAt,
		Bookings:   make([]uuid.UUID, 0, len(records)),
	}
	for _, r := range records {
		ev.Dates = append(ev.Dates, r.Date)
		ev.Bookings = append(ev.Bookings, r.ID)
	}
	return ev
}

// Publisher emits booking events.
type Publisher interface {
	BookingPlaced(ctx context.Context, records []model.Booking) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaPublisher implements Publisher on a Kafka topic, keyed by group ID.
type kafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  zerolog.Logger
}

// publishTimeout bounds one BookingPlaced call; the booking is already
// committed when it runs.
const publishTimeout = 2 * time.Second

// NewKafkaPublisher creates a publisher writing to topic on brokers. Each
// event is written once, without batching delay or retries.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  1,
		WriteTimeout: publishTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(writer, topic, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, logger zerolog.Logger) *kafkaPublisher {
	return &kafkaPublisher{
		writer:  writer,
		topic:   topic,
		timeout: publishTimeout,
		logger:  logger.With().Str("component", "kafka-publisher").Str("topic", topic).Logger(),
	}
}

func (p *kafkaPublisher) BookingPlaced(ctx context.Context, records []model.Booking) error {
	if len(records) == 0 {
		return nil
	}

	ev := NewBookingPlaced(records)
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode booking event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.GroupID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeBookingPlaced)},
		},
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).Str("group_id", ev.GroupID.String()).Msg("failed to publish booking event")
		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	p.logger.Debug().Str("group_id", ev.GroupID.String()).Msg("booking event published")
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// nopPublisher drops every event.
type nopPublisher struct {
	logger zerolog.Logger
}

// NewNopPublisher creates a Publisher for deployments without a broker.
func NewNopPublisher(logger zerolog.Logger) Publisher {
	return &nopPublisher{logger: logger.With().Str("component", "nop-publisher").Logger()}
}

func (p *nopPublisher) BookingPlaced(_ context.Context, records []model.Booking) error {
	if len(records) > 0 {
		p.logger.Debug().Str("group_id", records[0].GroupID.String()).Msg("booking event dropped")
	}
	return nil
}

func (p *nopPublisher) Close() error { return nil }
