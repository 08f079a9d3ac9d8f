package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/correlation"
)

const (
	// AssessmentSubmitted is emitted once a submission has been committed.
	AssessmentSubmitted = "assessment.submitted"
	// AnswerGraded is emitted after a manual override or explicit regrade.
	AnswerGraded = "answer.graded"
)

// Envelope wraps every published payload.
type Envelope struct {
	Type          string      `json:"type"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Data          interface{} `json:"data"`
}

// NATSPublisher publishes domain events on subjects derived from a base prefix.
type NATSPublisher struct {
	conn   *nats.Conn
	base   string
	logger zerolog.Logger
}

// NewNATSPublisher constructs a publisher. A nil connection makes Publish a no-op.
func NewNATSPublisher(conn *nats.Conn, base string, logger zerolog.Logger) *NATSPublisher {
	base = strings.Trim(strings.ReplaceAll(strings.TrimSpace(base), ":", "."), ".")
	if base == "" {
		base = "gema.assessment"
	}
	return &NATSPublisher{
		conn:   conn,
		base:   base,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Subject returns the NATS subject for an event type.
func (p *NATSPublisher) Subject(eventType string) string {
	return p.base + "." + eventType
}

// Publish serialises the event and sends it without waiting for subscribers.
func (p *NATSPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	if p == nil || p.conn == nil {
		return nil
	}

	payload, err := encodeEnvelope(ctx, eventType, data)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.Subject(eventType), payload); err != nil {
		p.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
		return err
	}

	return nil
}

func encodeEnvelope(ctx context.Context, eventType string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(Envelope{
		Type:          eventType,
		CorrelationID: correlation.FromContext(ctx),
		Data:          data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return payload, nil
}
