package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	queuePkg "github.com/jwebster45206/gamebook-engine/pkg/queue"
)

// indexQueueKey is the global list all index workers consume from.
const indexQueueKey = "index-requests"

// IndexQueue manages the queue of section indexing requests.
type IndexQueue struct {
	client *Client
}

func NewIndexQueue(client *Client) *IndexQueue {
	return &IndexQueue{
		client: client,
	}
}

// Enqueue adds an indexing request to the end of the global queue.
func (q *IndexQueue) Enqueue(ctx context.Context, req *queuePkg.IndexRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid index request: %w", err)
	}
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal index request: %w", err)
	}
	if err := q.client.rdb.RPush(ctx, indexQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue index request: %w", err)
	}
	return nil
}

// BlockingDequeue waits up to timeout for the next request. A nil
// request with nil error means the queue was empty for the whole
// timeout, which is normal during idle periods.
func (q *IndexQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*queuePkg.IndexRequest, error) {
	result, err := q.client.rdb.BLPop(ctx, timeout, indexQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue index request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queuePkg.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index request: %w", err)
	}
	return req, nil
}

// Depth returns the number of pending requests in the global queue.
func (q *IndexQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, indexQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}
