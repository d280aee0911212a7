package feed

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/redis"
	"github.com/pkg/errors"
)

type Config struct {
	Stream            string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
}

// Message is one stream entry handed to a consumer.
type Message struct {
	ID        string
	Type      string
	Data      []byte
	Timestamp time.Time
	Attempts  int
}

// Event decodes the register event carried by m.
func (m *Message) Event() (*model.RegisterEvent, error) {
	var ev model.RegisterEvent
	if err := json.Unmarshal(m.Data, &ev); err != nil {
		return nil, errors.Wrapf(err, "decode feed message %s", m.ID)
	}
	return &ev, nil
}

// Handler processes a message. A nil return acks it; an error leaves it
// pending so it is reclaimed after the visibility timeout.
type Handler func(ctx context.Context, msg *Message) error

type Stats struct {
	TotalMessages   int64
	PendingMessages int64
}

// Feed is the register event stream. The API process only publishes; the
// relay process consumes through a consumer group.
type Feed struct {
	adapter redis.RedisAdapter
	config  Config
	handler Handler
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(ctx context.Context, adapter redis.RedisAdapter, config Config) (*Feed, error) {
	if config.Stream == "" {
		return nil, errors.New("feed stream name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "relay"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = "consumer-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.VisibilityTimeout <= 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}

	f := &Feed{adapter: adapter, config: config}

	err := adapter.XGroupCreateMkStream(ctx, config.Stream, config.ConsumerGroup, "0")
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, errors.Wrap(err, "create feed consumer group")
	}
	return f, nil
}

func (f *Feed) Config() Config {
	return f.config
}

// Publish appends ev to the stream.
func (f *Feed) Publish(ctx context.Context, ev *model.RegisterEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode register event")
	}

	values := map[string]interface{}{
		"type":      ev.Type,
		"data":      string(data),
		"timestamp": time.Now().Unix(),
	}
	if _, err := f.adapter.XAdd(ctx, f.config.Stream, f.config.MaxLen, values); err != nil {
		return errors.Wrap(err, "publish register event")
	}
	return nil
}

func (f *Feed) Stats(ctx context.Context) (*Stats, error) {
	total, err := f.adapter.XLen(ctx, f.config.Stream)
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalMessages: total}
	if pending, err := f.adapter.XPendingCount(ctx, f.config.Stream, f.config.ConsumerGroup); err == nil {
		stats.PendingMessages = pending
	}
	return stats, nil
}

func (f *Feed) dlqName() string {
	return f.config.Stream + ":dlq"
}

func toMessage(sm redis.StreamMessage) *Message {
	msg := &Message{ID: sm.ID}
	for k, v := range sm.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch k {
		case "type":
			msg.Type = s
		case "data":
			msg.Data = []byte(s)
		case "timestamp":
			if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
				msg.Timestamp = time.Unix(unix, 0).UTC()
			}
		}
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return msg
}
