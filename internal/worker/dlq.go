package worker

// Jobs that fail permanently are parked in a Redis list per source queue,
// dlq:{original_queue}, for manual inspection.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // RFC 3339
	Attempts      int             `json:"attempts"`
}

func newDLQEntry(queue, jobType string, payload json.RawMessage, reason string, attempts int, now time.Time) DLQEntry {
	return DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      now.UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}
}

// SendToDLQ pushes a failed job to the dead letter queue.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	if rdb == nil {
		log.Error().Str("queue", queue).Str("reason", reason).Msg("dlq: no redis connection, job dropped")
		return
	}
	data, err := json.Marshal(newDLQEntry(queue, jobType, payload, reason, attempts, time.Now()))
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// QueueStat is the depth of one job queue and its dead letter list.
type QueueStat struct {
	Pending int64 `json:"pending"`
	Dead    int64 `json:"dead"`
}

// Stats reports pending and dead-lettered jobs for every queue in a single
// pipelined round trip.
func Stats(ctx context.Context, rdb *redis.Client) (map[string]QueueStat, error) {
	queues := []string{QueuePDF, QueueEmail}
	pipe := rdb.Pipeline()
	pending := make([]*redis.IntCmd, len(queues))
	dead := make([]*redis.IntCmd, len(queues))
	for i, q := range queues {
		pending[i] = pipe.LLen(ctx, q)
		dead[i] = pipe.LLen(ctx, DLQPrefix+q)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]QueueStat, len(queues))
	for i, q := range queues {
		out[q] = QueueStat{Pending: pending[i].Val(), Dead: dead[i].Val()}
	}
	return out, nil
}
