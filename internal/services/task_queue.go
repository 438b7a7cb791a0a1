package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeMail = "mail:send"
)

// MailTask is one notification waiting to be rendered and sent.
type MailTask struct {
	Kind      string                 `json:"kind"`
	Recipient string                 `json:"recipient"`
	Vars      map[string]interface{} `json:"vars"`
}

// TaskQueue hands mail tasks to a background processor.
type TaskQueue interface {
	Enqueue(task *MailTask) error
	// IsAsync returns true if tasks are processed by a separate worker process
	IsAsync() bool
	Close() error
}

// NewTaskQueue returns a Redis-backed queue when enabled and reachable, and
// an in-process queue otherwise.
func NewTaskQueue(cfg *config.RedisConfig) TaskQueue {
	if !cfg.Enabled {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
		return NewSyncQueue()
	}
	queue, err := NewAsyncQueue(cfg)
	if err != nil {
		logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncQueue()
	}
	logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Addr)
	return queue
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue submits the task with no retries; a notification is attempted once.
func (q *AsyncQueue) Enqueue(task *MailTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(asynq.NewTask(TaskTypeMail, payload),
		asynq.Queue("mail"),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("kind", task.Kind).Msg("[AsyncQueue] mail task enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs each task on its own goroutine in this process.
type SyncQueue struct {
	mu        sync.RWMutex
	processor func(context.Context, *MailTask) error
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor func(context.Context, *MailTask) error) {
	q.mu.Lock()
	q.processor = processor
	q.mu.Unlock()
}

func (q *SyncQueue) Enqueue(task *MailTask) error {
	q.mu.RLock()
	processor := q.processor
	q.mu.RUnlock()

	if processor == nil {
		logger.Warnf("[SyncQueue] no processor set, dropping %s task for %s", task.Kind, task.Recipient)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := processor(context.Background(), task); err != nil {
			logger.Warnf("[SyncQueue] %s task failed: %v", task.Kind, err)
		}
	}()

	return nil
}

// Wait blocks until every enqueued task has finished.
func (q *SyncQueue) Wait() {
	q.wg.Wait()
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight tasks.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
