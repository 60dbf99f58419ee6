package events

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	TypeVerdict             = "ppe.verdict"
	TypeAttendanceFinalized = "attendance.finalized"
)

// VerdictEvent is emitted once per finalized detection session.
type VerdictEvent struct {
	Type            string    `json:"type"`
	RecordID        string    `json:"record_id"`
	SessionID       string    `json:"session_id"`
	SubjectID       string    `json:"subject_id"`
	OrganizationID  string    `json:"organization_id"`
	ComplianceTier  string    `json:"compliance_tier"`
	PointsAwarded   int       `json:"points_awarded"`
	MissingItems    []string  `json:"missing_items"`
	RoundsCompleted int       `json:"rounds_completed"`
	Reason          string    `json:"reason"`
	Timestamp       time.Time `json:"timestamp"`
}

// AttendanceFinalizedEvent is emitted after every end-of-day reconciliation.
type AttendanceFinalizedEvent struct {
	Type           string    `json:"type"`
	OrganizationID string    `json:"organization_id"`
	Date           string    `json:"date"`
	Present        int       `json:"present"`
	Absent         int       `json:"absent"`
	Total          int       `json:"total"`
	FirstFinalize  bool      `json:"first_finalize"`
	Timestamp      time.Time `json:"timestamp"`
}

type Publisher interface {
	PublishVerdict(ctx context.Context, event VerdictEvent) error
	PublishAttendanceFinalized(ctx context.Context, event AttendanceFinalizedEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers         []string
	VerdictTopic    string
	AttendanceTopic string
	WriteTimeout    time.Duration
}

// ConfigFromEnv reads KAFKA_BROKERS (comma separated), KAFKA_VERDICT_TOPIC and
// KAFKA_ATTENDANCE_TOPIC.
func ConfigFromEnv() Config {
	cfg := Config{
		VerdictTopic:    os.Getenv("KAFKA_VERDICT_TOPIC"),
		AttendanceTopic: os.Getenv("KAFKA_ATTENDANCE_TOPIC"),
		WriteTimeout:    5 * time.Second,
	}
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.Brokers = append(cfg.Brokers, b)
		}
	}
	if cfg.VerdictTopic == "" {
		cfg.VerdictTopic = TypeVerdict
	}
	if cfg.AttendanceTopic == "" {
		cfg.AttendanceTopic = TypeAttendanceFinalized
	}
	return cfg
}

type kafkaPublisher struct {
	cfg    Config
	writer messageWriter
	log    *logrus.Logger
}

// New returns a Kafka-backed publisher, or a no-op one when no brokers are configured.
func New(cfg Config, log *logrus.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		log.Info("Event publishing disabled, KAFKA_BROKERS not set")
		return Noop{}
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}

	log.WithField("brokers", cfg.Brokers).Info("Event publishing enabled")
	return newWithWriter(cfg, writer, log)
}

func newWithWriter(cfg Config, writer messageWriter, log *logrus.Logger) *kafkaPublisher {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &kafkaPublisher{cfg: cfg, writer: writer, log: log}
}

func (p *kafkaPublisher) PublishVerdict(ctx context.Context, event VerdictEvent) error {
	event.Type = TypeVerdict
	return p.publish(ctx, p.cfg.VerdictTopic, event.SubjectID, event)
}

func (p *kafkaPublisher) PublishAttendanceFinalized(ctx context.Context, event AttendanceFinalizedEvent) error {
	event.Type = TypeAttendanceFinalized
	return p.publish(ctx, p.cfg.AttendanceTopic, event.OrganizationID, event)
}

func (p *kafkaPublisher) publish(ctx context.Context, topic, key string, event interface{}) error {
	value, err := jsoniter.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.WriteTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"topic": topic,
			"key":   key,
			"error": err.Error(),
		}).Warn("Failed to publish event")
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.log.WithFields(logrus.Fields{"topic": topic, "key": key}).Debug("Event published")
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type Noop struct{}

func (Noop) PublishVerdict(context.Context, VerdictEvent) error { return nil }

func (Noop) PublishAttendanceFinalized(context.Context, AttendanceFinalizedEvent) error { return nil }

func (Noop) Close() error { return nil }
