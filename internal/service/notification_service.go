package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/jobs"
)

const notificationJobType = "activity.notify"

// redisPublisher is the subset of *redis.Client used for fan-out.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NotificationConfig sizes the fan-out worker pool.
type NotificationConfig struct {
	Channel    string
	Workers    int
	BufferSize int
}

// NotificationService publishes activity notifications on a redis channel.
// Delivery is at most once: a full buffer or a failed publish drops the
// notification.
type NotificationService struct {
	client  redisPublisher
	channel string
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService builds the publisher. Call Start before Notify.
func NewNotificationService(client redisPublisher, cfg NotificationConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Channel == "" {
		cfg.Channel = "exhibit-flow:activity"
	}
	svc := &NotificationService{client: client, channel: cfg.Channel, metrics: metrics, logger: logger}
	svc.queue = jobs.NewQueue("notifications", svc.publish, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: -1,
		Logger:     logger,
		OnDrop: func(job jobs.Job, err error) {
			metrics.NotificationDropped()
			logger.Warn("notification dropped", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
		},
	})
	return svc
}

// Start launches the publishing workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the workers; buffered notifications are discarded.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify buffers n without blocking the caller.
func (s *NotificationService) Notify(n models.Notification) {
	job := jobs.Job{ID: uuid.NewString(), Type: notificationJobType, Payload: n}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.logger.Warn("notification not queued", zap.String("subject_id", n.SubjectID), zap.Error(err))
	}
}

func (s *NotificationService) publish(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected notification payload %T", job.Payload)
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	s.metrics.NotificationPublished()
	return nil
}
