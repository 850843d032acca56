package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/okian/graphboard/internal/domain/dedupe"
	"github.com/okian/graphboard/pkg/logger"
)

const (
	defaultIdleTimeout = 2 * time.Second
	defaultMaxBytes    = 1 << 20
)

// MessageReader is the subset of *kafka.Reader used by KafkaSource.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig captures what is needed to drain the score topic.
type KafkaConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	IdleTimeout time.Duration
	MaxBytes    int
}

// KafkaSource drains a topic until no message arrives for IdleTimeout. Each
// message value is decoded as feed text. Offsets are committed by Ack, after
// the merged state is persisted, so a failed update is re-read next time.
type KafkaSource struct {
	cfg     KafkaConfig
	reader  MessageReader
	seen    dedupe.Deduper
	log     logger.Logger
	pending []kafka.Message
}

// KafkaOption configures a KafkaSource.
type KafkaOption func(*KafkaSource)

// WithReader injects the message reader instead of dialing brokers.
func WithReader(r MessageReader) KafkaOption {
	return func(s *KafkaSource) {
		if r != nil {
			s.reader = r
		}
	}
}

// WithDeduper sets the tracker used to drop redelivered messages.
func WithDeduper(d dedupe.Deduper) KafkaOption {
	return func(s *KafkaSource) {
		if d != nil {
			s.seen = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) KafkaOption {
	return func(s *KafkaSource) {
		if l != nil {
			s.log = l
		}
	}
}

// NewKafkaSource builds a consumer-group reader for cfg.
func NewKafkaSource(cfg KafkaConfig, opts ...KafkaOption) (*KafkaSource, error) {
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("%w: kafka topic must not be empty", ErrInvalidSource)
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}

	s := &KafkaSource{
		cfg:  cfg,
		seen: dedupe.NewInMemoryDeduper(),
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.reader == nil {
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("%w: at least one kafka broker is required", ErrInvalidSource)
		}
		if strings.TrimSpace(cfg.GroupID) == "" {
			return nil, fmt.Errorf("%w: kafka consumer group must not be empty", ErrInvalidSource)
		}
		s.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     cfg.GroupID,
			Topic:       cfg.Topic,
			StartOffset: kafka.FirstOffset,
			MinBytes:    1,
			MaxBytes:    cfg.MaxBytes,
		})
	}
	return s, nil
}

// Name identifies the topic.
func (s *KafkaSource) Name() string { return "kafka:" + s.cfg.Topic }

// Read fetches messages until the topic has been idle for IdleTimeout.
func (s *KafkaSource) Read(ctx context.Context) (Batch, error) {
	var batch Batch
	lines := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

	for {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.IdleTimeout)
		msg, err := s.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
				return batch, nil
			case errors.Is(err, io.EOF), errors.Is(err, kafka.ErrGroupClosed):
				return batch, nil
			case ctx.Err() != nil:
				return batch, ctx.Err()
			default:
				return batch, fmt.Errorf("fetch from %s: %w", s.cfg.Topic, err)
			}
		}

		s.pending = append(s.pending, msg)
		id := dedupe.MessageID(msg.Topic, msg.Partition, msg.Offset)
		if s.seen.SeenAndRecord(ctx, id) {
			batch.Duplicates++
			s.log.Debug(ctx, "dropping redelivered message", logger.String("message", id))
			continue
		}

		got, err := decode(bytes.NewReader(msg.Value), id, lines)
		if err != nil {
			s.log.Warn(ctx, "unreadable message", logger.String("message", id), logger.Error(err))
			continue
		}
		batch.merge(got)
	}
}

// Ack commits every message read so far.
func (s *KafkaSource) Ack(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.reader.CommitMessages(ctx, s.pending...); err != nil {
		return fmt.Errorf("commit %d messages on %s: %w", len(s.pending), s.cfg.Topic, err)
	}
	s.log.Debug(ctx, "committed offsets", logger.Int("messages", len(s.pending)))
	s.pending = nil
	return nil
}

// Close releases the reader.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
