// Package events publishes interview lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/ZaidMomin2003/talxify/backend/internal/config"
	"github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/metrics"
)

// TurnEvent describes one completed interviewer turn.
type TurnEvent struct {
	SessionID  string    `json:"sessionId"`
	TargetRole string    `json:"targetRole"`
	Level      string    `json:"level"`
	Candidate  string    `json:"candidate"`
	Reply      string    `json:"reply"`
	TextOnly   bool      `json:"textOnly"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AssessmentEvent describes a finished interview's review.
type AssessmentEvent struct {
	SessionID  string                `json:"sessionId"`
	TargetRole string                `json:"targetRole"`
	Level      string                `json:"level"`
	Turns      int                   `json:"turns"`
	Assessment *interview.Assessment `json:"assessment,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
}

// Publisher writes interview events to Kafka. When disabled it degrades to
// log-only mode so the pipeline never depends on a broker being up.
type Publisher struct {
	writerTurn       *kafka.Writer
	writerAssessment *kafka.Writer
	topicTurn        string
	topicAssessment  string
	enabled          bool
	log              zerolog.Logger
	metrics          *metrics.Metrics
}

// New creates the publisher from configuration.
func New(cfg config.EventsConfig) *Publisher {
	log := logging.WithComponent("events")

	p := &Publisher{
		topicTurn:       cfg.TurnTopic,
		topicAssessment: cfg.AssessmentTopic,
		enabled:         cfg.Enabled,
		log:             log,
		metrics:         metrics.Default,
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("kafka disabled, publishing in log-only mode")
		p.enabled = false
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	p.writerTurn = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TurnTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
	p.writerAssessment = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AssessmentTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("turn_topic", cfg.TurnTopic).
		Str("assessment_topic", cfg.AssessmentTopic).
		Msg("kafka publisher initialized")
	return p
}

// PublishTurn publishes one completed turn keyed by session.
func (p *Publisher) PublishTurn(ctx context.Context, event *TurnEvent) error {
	return p.publish(ctx, p.writerTurn, p.topicTurn, event.SessionID, event)
}

// PublishAssessment publishes a finished interview's review keyed by session.
func (p *Publisher) PublishAssessment(ctx context.Context, event *AssessmentEvent) error {
	return p.publish(ctx, p.writerAssessment, p.topicAssessment, event.SessionID, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("topic", topic).Msg("failed to marshal event")
		return err
	}

	p.log.Debug().
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("publishing event")

	if !p.enabled || writer == nil {
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}
	if err := writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error().Err(err).Str("topic", topic).Str("key", key).Msg("failed to write to kafka")
		p.metrics.RecordPublishError(topic)
		return err
	}
	return nil
}

// Close closes both writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerTurn != nil {
		if e := p.writerTurn.Close(); e != nil {
			p.log.Error().Err(e).Msg("error closing turn writer")
			err = e
		}
	}
	if p.writerAssessment != nil {
		if e := p.writerAssessment.Close(); e != nil {
			p.log.Error().Err(e).Msg("error closing assessment writer")
			err = e
		}
	}
	return err
}
