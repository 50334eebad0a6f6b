package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	// QueueWithdrawalNotify carries provider notifications for terminal
	// withdrawal transitions
	QueueWithdrawalNotify = "withdrawal_notify"

	// DefaultPopTimeout bounds each blocking dequeue so workers can notice
	// context cancellation
	DefaultPopTimeout = 5 * time.Second
)

// Job represents a background job on a redis-backed queue
type Job struct {
	ID        string          `json:"id"`
	Queue     string          `json:"queue"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Handler processes a dequeued job
type Handler func(ctx context.Context, job *Job) error

// Queue is a minimal redis list-backed job queue. Producers enqueue
// fire-and-forget; a worker per queue name drains it.
type Queue struct {
	client *redis.Client
}

// NewQueue creates a new queue on the given redis client
func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// Enqueue serializes the payload and pushes a job onto the named queue
func (q *Queue) Enqueue(ctx context.Context, queueName string, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:        uuid.New().String(),
		Queue:     queueName,
		Payload:   data,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, queueKey(queueName), raw).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job.ID, nil
}

// Dequeue blocks up to DefaultPopTimeout for the next job on the named
// queue; a nil job means the wait timed out
func (q *Queue) Dequeue(ctx context.Context, queueName string) (*Job, error) {
	result, err := q.client.BRPop(ctx, DefaultPopTimeout, queueKey(queueName)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	// BRPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(result))
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// Process drains the named queue until the context is cancelled. Handler
// errors are logged and the job is dropped; these queues carry
// notifications, not money.
func (q *Queue) Process(ctx context.Context, queueName string, handler Handler) {
	log.Printf("Queue worker started for %s", queueName)
	for {
		select {
		case <-ctx.Done():
			log.Printf("Queue worker for %s stopped", queueName)
			return
		default:
		}

		job, err := q.Dequeue(ctx, queueName)
		if err != nil {
			log.Printf("Error dequeuing from %s: %v", queueName, err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := handler(ctx, job); err != nil {
			log.Printf("Job %s on %s failed: %v", job.ID, queueName, err)
		}
	}
}

func queueKey(queueName string) string {
	return "queue:" + queueName
}
