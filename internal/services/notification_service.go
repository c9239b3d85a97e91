package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"homelyquad/internal/models"
	"homelyquad/internal/repositories"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// NotificationSink delivers transition events. Delivery is at most once and
// callers treat failures as non-fatal.
type NotificationSink interface {
	Notify(ctx context.Context, event models.NotificationEvent) error
}

// MessageSink stores each event as an inbox message row.
type MessageSink struct {
	repo repositories.NotificationRepository
}

func NewMessageSink(repo repositories.NotificationRepository) *MessageSink {
	return &MessageSink{repo: repo}
}

func (s *MessageSink) Notify(ctx context.Context, event models.NotificationEvent) error {
	requestID := event.RequestID
	senderID := event.ActorID
	msg := &models.Notification{
		ID:             event.ID,
		OrganizationID: event.OrganizationID,
		RecipientID:    event.RecipientID,
		RequestID:      &requestID,
		Kind:           event.Kind,
		Subject:        event.Subject,
		Body:           event.Body,
		CreatedAt:      event.OccurredAt,
	}
	if senderID != 0 {
		msg.SenderID = &senderID
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// RedisPublisher is the part of *redis.Client the redis sink needs.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes events on a per-recipient channel for live clients.
type RedisSink struct {
	client RedisPublisher
	prefix string
}

func NewRedisSink(client RedisPublisher) *RedisSink {
	return &RedisSink{client: client, prefix: "homelyquad:notifications:"}
}

// Channel returns the pub/sub channel a user's events are published on
func (s *RedisSink) Channel(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

func (s *RedisSink) Notify(ctx context.Context, event models.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.Channel(event.RecipientID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// KafkaWriter is the part of *kafka.Writer the kafka sink needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink appends events to a topic keyed by request id, so one request's
// events stay ordered on a partition.
type KafkaSink struct {
	writer KafkaWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return NewKafkaSinkWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	})
}

func NewKafkaSinkWithWriter(writer KafkaWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Notify(ctx context.Context, event models.NotificationEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.RequestID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
		},
		Time: event.OccurredAt,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// FanoutSink forwards every event to all sinks and joins their errors.
type FanoutSink struct {
	sinks []NotificationSink
}

func NewFanoutSink(sinks ...NotificationSink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

func (f *FanoutSink) Notify(ctx context.Context, event models.NotificationEvent) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotificationService serves a user's stored inbox
type NotificationService interface {
	ListForUser(ctx context.Context, user models.ActingUser, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, user models.ActingUser, id uuid.UUID) error
}

type notificationService struct {
	repo repositories.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo repositories.NotificationRepository) NotificationService {
	return &notificationService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *notificationService) ListForUser(ctx context.Context, user models.ActingUser, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByRecipient(ctx, user.ID, unreadOnly, limit, offset)
}

func (s *notificationService) MarkRead(ctx context.Context, user models.ActingUser, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, user.ID, id, s.now())
}
