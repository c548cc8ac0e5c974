package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"launchkit/internal/config"
	"launchkit/internal/email"
	"launchkit/internal/ids"
	"launchkit/internal/utils/logger"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// TaskClient enqueues background work. It also owns the plain redis client
// shared by the rate limiter and the stats cache.
type TaskClient struct {
	client      enqueuer
	logger      *logger.Logger
	redisClient *redis.Client
}

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewTaskClient creates a new TaskClient with the given Redis configuration
func NewTaskClient(cfg config.RedisConfig) *TaskClient {
	return &TaskClient{
		client: asynq.NewClient(redisOpt(cfg)),
		redisClient: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		logger: logger.New("TASKS"),
	}
}

func (c *TaskClient) Redis() *redis.Client {
	return c.redisClient
}

// Close closes the underlying asynq and redis clients
func (c *TaskClient) Close() error {
	err := c.client.Close()
	if c.redisClient != nil {
		if rerr := c.redisClient.Close(); err == nil {
			err = rerr
		}
	}
	return err
}

func (c *TaskClient) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...)
	if err != nil {
		return nil, c.logger.Error(fmt.Sprintf("Failed to enqueue %s ❌", taskType), err)
	}
	c.logger.Info("enqueued %s id=%s queue=%s", taskType, info.ID, info.Queue)
	return info, nil
}

// EnqueueEmail queues msg for delivery.
func (c *TaskClient) EnqueueEmail(ctx context.Context, msg email.Message) error {
	_, err := c.enqueue(ctx, TaskTypeEmailSend, msg, emailOptions()...)
	return err
}

// EnqueueAuditExport queues an export and returns the object key it will be written to.
func (c *TaskClient) EnqueueAuditExport(ctx context.Context, p AuditExportPayload) (string, error) {
	if p.Key == "" {
		p.Key = ids.New()
	}
	if _, err := c.enqueue(ctx, TaskTypeAuditExport, p, exportOptions(p.Key)...); err != nil {
		return "", err
	}
	return p.Key, nil
}

// EnqueueStatsSnapshot triggers a stats refresh outside the schedule.
func (c *TaskClient) EnqueueStatsSnapshot(ctx context.Context) error {
	_, err := c.enqueue(ctx, TaskTypeStatsSnapshot, struct{}{}, statsOptions()...)
	return err
}
