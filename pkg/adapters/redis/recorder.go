// Package redis publishes committed transitions to Redis for out-of-process
// diagnostics: the latest record is kept under a key and every record is
// fanned out on a pub/sub channel.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/domain"
)

// ErrNoRecord is returned by Latest when nothing was recorded or the record expired.
var ErrNoRecord = errors.New("no transition recorded")

// Defaults of the recorder.
const (
	DefaultPrefix  = "vestibule:"
	DefaultChannel = "vestibule:transitions"
	DefaultTTL     = 24 * time.Hour
	defaultBuffer  = 128
)

// Recorder mirrors transitions into Redis.
//
// Record is cheap and never blocks, so it can be called from the state machine's
// goroutine; a worker started with Start performs the writes.
type Recorder struct {
	client  *backend.Client
	prefix  string
	channel string
	ttl     time.Duration
	queue   chan domain.TransitionRecord
	logger  *slog.Logger
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithPrefix sets the key prefix (default "vestibule:").
func WithPrefix(prefix string) Option {
	return func(r *Recorder) {
		r.prefix = prefix
	}
}

// WithChannel sets the pub/sub channel.
func WithChannel(channel string) Option {
	return func(r *Recorder) {
		r.channel = channel
	}
}

// WithTTL sets the expiration of the latest record. 0 keeps it forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Recorder) {
		r.ttl = ttl
	}
}

// WithBuffer sets how many records may wait for the worker.
func WithBuffer(n int) Option {
	return func(r *Recorder) {
		r.queue = make(chan domain.TransitionRecord, n)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a recorder on an existing client.
func NewRecorder(client *backend.Client, opts ...Option) *Recorder {
	r := &Recorder{
		client:  client,
		prefix:  DefaultPrefix,
		channel: DefaultChannel,
		ttl:     DefaultTTL,
		queue:   make(chan domain.TransitionRecord, defaultBuffer),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) latestKey() string { return r.prefix + "latest" }
func (r *Recorder) countKey() string  { return r.prefix + "count" }

// Record queues a transition. When the queue is full the record is dropped:
// a newer one supersedes it anyway.
func (r *Recorder) Record(rec domain.TransitionRecord) {
	select {
	case r.queue <- rec:
	default:
		r.logger.Warn("transition recorder queue full, dropping record", "from", rec.From, "to", rec.To)
	}
}

// Start drains the queue until ctx is cancelled.
func (r *Recorder) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec := <-r.queue:
			if err := r.Write(ctx, rec); err != nil {
				r.logger.Error("failed to record transition", "error", err)
			}
		}
	}
}

// Write stores rec as the latest record and publishes it.
func (r *Recorder) Write(ctx context.Context, rec domain.TransitionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode transition: %w", err)
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.latestKey(), payload, r.ttl)
	pipe.Incr(ctx, r.countKey())
	pipe.Publish(ctx, r.channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis error recording transition: %w", err)
	}
	return nil
}

// Latest returns the most recent transition.
func (r *Recorder) Latest(ctx context.Context) (domain.TransitionRecord, error) {
	var rec domain.TransitionRecord
	data, err := r.client.Get(ctx, r.latestKey()).Bytes()
	if errors.Is(err, backend.Nil) {
		return rec, ErrNoRecord
	}
	if err != nil {
		return rec, fmt.Errorf("redis error reading transition: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode transition: %w", err)
	}
	return rec, nil
}

// Count returns how many transitions were recorded.
func (r *Recorder) Count(ctx context.Context) (int64, error) {
	n, err := r.client.Get(ctx, r.countKey()).Int64()
	if errors.Is(err, backend.Nil) {
		return 0, nil
	}
	return n, err
}

// Watch streams records published on the channel until ctx is cancelled.
// Undecodable messages are logged and skipped.
func (r *Recorder) Watch(ctx context.Context) (<-chan domain.TransitionRecord, error) {
	sub := r.client.Subscribe(ctx, r.channel)
	// Wait for the subscription confirmation so no publish is missed after return.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis error subscribing: %w", err)
	}

	out := make(chan domain.TransitionRecord)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var rec domain.TransitionRecord
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
					r.logger.Warn("skipping malformed transition message", "error", err)
					continue
				}
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
