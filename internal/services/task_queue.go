package services

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/pkg/logger"
)

const (
	TaskTypeAttendanceResend = "attendance:resend"
)

// ResendTask asks Humanica to resend a punch that could not be imported.
type ResendTask struct {
	SeqNo   string `json:"seq_no"`
	StaffNo string `json:"staff_no,omitempty"`
	Date    string `json:"date"` // MM/dd/yyyy
}

// TaskQueue defines the interface for resend task processing
type TaskQueue interface {
	Enqueue(task *ResendTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// NewResendTask encodes task as an asynq task.
func NewResendTask(task *ResendTask) (*asynq.Task, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAttendanceResend, payload), nil
}

func (q *AsyncQueue) Enqueue(task *ResendTask) error {
	t, err := NewResendTask(task)
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Resend task enqueued: id=%s, queue=%s, seq_no=%s", info.ID, info.Queue, task.SeqNo)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue without Redis. Tasks run in a goroutine so
// the HTTP callback is not held up by the resend request.
type SyncQueue struct {
	processor func(context.Context, *ResendTask) error
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor func(context.Context, *ResendTask) error) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(task *ResendTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] No processor set, resend for seq_no=%s dropped", task.SeqNo)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Errorf("[SyncQueue] Resend for seq_no=%s failed: %v", task.SeqNo, err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight tasks.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
