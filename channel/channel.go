package channel

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/safego"
	"github.com/jitsucom/crashnative/telemetry"
	"go.uber.org/atomic"
)

const (
	DefaultMaxBatchSize     = 500
	DefaultMaxBatchInterval = 30 * time.Second

	trackPath = "/v2/track"
)

//TrackURL returns telemetry upload url
func TrackURL(endpoint string) string {
	return strings.TrimRight(endpoint, "/") + trackPath
}

type Config struct {
	Endpoint         string
	MaxBatchSize     int
	MaxBatchInterval time.Duration
}

//Channel batches stamped items in memory and persists batches as transmissions
type Channel struct {
	storage  *Storage
	sender   *Sender
	address  string
	maxBatch int
	interval time.Duration

	mu     sync.Mutex
	buffer []*telemetry.Item

	closed *atomic.Bool
	done   chan struct{}
}

func New(storage *Storage, sender *Sender, cfg Config) *Channel {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.MaxBatchInterval <= 0 {
		cfg.MaxBatchInterval = DefaultMaxBatchInterval
	}

	return &Channel{
		storage:  storage,
		sender:   sender,
		address:  TrackURL(cfg.Endpoint),
		maxBatch: cfg.MaxBatchSize,
		interval: cfg.MaxBatchInterval,
		closed:   atomic.NewBool(false),
		done:     make(chan struct{}),
	}
}

//Start runs background batch persisting and sending
func (c *Channel) Start() {
	c.sender.Start()

	safego.RunWithRestart(func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				c.persistBuffer(context.Background())
			}
		}
	})
}

//Send buffers the item. A full buffer is persisted immediately
func (c *Channel) Send(item *telemetry.Item) {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	c.buffer = append(c.buffer, item)
	full := len(c.buffer) >= c.maxBatch
	c.mu.Unlock()

	if full {
		c.persistBuffer(context.Background())
		c.sender.Flush()
	}
}

//Flush persists buffered items and triggers sending
func (c *Channel) Flush(ctx context.Context) {
	c.persistBuffer(ctx)
	c.sender.Flush()
}

//FlushAndSend persists buffered items and sends stored transmissions synchronously
func (c *Channel) FlushAndSend(ctx context.Context) int {
	c.persistBuffer(ctx)
	return c.sender.SendPending(ctx)
}

func (c *Channel) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.buffer)
}

//Close persists buffered items and stops background loops
func (c *Channel) Close() {
	if !c.closed.CAS(false, true) {
		return
	}

	close(c.done)
	c.persistBuffer(context.Background())
	c.sender.Close()
}

func (c *Channel) persistBuffer(ctx context.Context) {
	c.mu.Lock()
	items := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	if len(items) == 0 {
		return
	}

	content, err := telemetry.SerializeBatch(items)
	if err != nil {
		logging.Errorf("Error serializing %d telemetry items: %v", len(items), err)
		return
	}

	tr := &Transmission{
		EndpointAddress: c.address,
		ContentType:     telemetry.BatchContentType,
		ContentEncoding: telemetry.BatchContentEncoding,
		Content:         content,
	}
	if !c.storage.Enqueue(ctx, tr) {
		logging.Debugf("Telemetry batch of %d items has been dropped", len(items))
	}
}
