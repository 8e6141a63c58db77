package channel

import (
	"context"
	"sync"
	"time"

	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/metrics"
	"github.com/jitsucom/crashnative/safego"
	"github.com/jitsucom/crashnative/transport"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

const (
	DefaultSendInterval = 10 * time.Second
	DefaultPoolSize     = 3
)

type SenderConfig struct {
	SendInterval time.Duration
	PoolSize     int
	//MaxPerSecond limits transmissions rate. 0 means unlimited
	MaxPerSecond float64
}

//Sender uploads stored transmissions in the background
type Sender struct {
	storage      *Storage
	transport    transport.Sender
	connectivity transport.Connectivity
	interval     time.Duration

	pool    *ants.Pool
	limiter *rate.Limiter

	passMu  sync.Mutex
	trigger chan struct{}
	closed  *atomic.Bool
	cancel  context.CancelFunc
	ctx     context.Context
}

func NewSender(storage *Storage, sender transport.Sender, connectivity transport.Connectivity, cfg SenderConfig) (*Sender, error) {
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = DefaultSendInterval
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if connectivity == nil {
		connectivity = transport.AlwaysOnline{}
	}

	pool, err := ants.NewPool(cfg.PoolSize, ants.WithPanicHandler(func(value interface{}) {
		logging.SystemErrorf("panic in transmission sender worker: %v", value)
	}))
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.MaxPerSecond > 0 {
		limit = rate.Limit(cfg.MaxPerSecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Sender{
		storage:      storage,
		transport:    sender,
		connectivity: connectivity,
		interval:     cfg.SendInterval,
		pool:         pool,
		limiter:      rate.NewLimiter(limit, cfg.PoolSize),
		trigger:      make(chan struct{}, 1),
		closed:       atomic.NewBool(false),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

//Start runs the background send loop
func (s *Sender) Start() {
	safego.RunWithRestart(func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
			case <-s.trigger:
			}

			s.SendPending(s.ctx)
		}
	})
}

//Flush asks the background loop to send pending transmissions now
func (s *Sender) Flush() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

//SendPending sends stored transmissions until the storage is drained or a transient failure happens.
//Returns number of sent transmissions
func (s *Sender) SendPending(ctx context.Context) int {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	if !s.connectivity.IsOnline() {
		return 0
	}

	sent := atomic.NewInt64(0)
	failed := atomic.NewBool(false)
	wg := sync.WaitGroup{}

	for !failed.Load() && ctx.Err() == nil {
		tr := s.storage.Peek(ctx)
		if tr == nil {
			break
		}

		if err := s.limiter.Wait(ctx); err != nil {
			s.storage.Release(tr)
			break
		}

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			switch s.send(ctx, tr) {
			case delivered:
				sent.Inc()
			case retryLater:
				//stop peeking before the transmission becomes visible again
				failed.Store(true)
				s.storage.Release(tr)
			}
		})
		if err != nil {
			wg.Done()
			s.storage.Release(tr)
			logging.Errorf("Error submitting transmission [%s] to the sender pool: %v", tr.FileName, err)
			break
		}
	}

	wg.Wait()
	return int(sent.Load())
}

type outcome int

const (
	delivered outcome = iota
	discarded
	retryLater
)

//send deletes delivered and discarded transmissions. retryLater ones are released by the caller
func (s *Sender) send(ctx context.Context, tr *Transmission) outcome {
	_, err := s.transport.Send(ctx, &transport.Request{
		URL:             tr.EndpointAddress,
		ContentType:     tr.ContentType,
		ContentEncoding: tr.ContentEncoding,
		Body:            tr.Content,
	})
	if err == nil {
		metrics.TransmissionSent()
		s.storage.Delete(ctx, tr)
		return delivered
	}

	metrics.TransmissionFailed()
	if transport.IsTransient(err) {
		logging.Debugf("Transmission [%s] will be retried: %v", tr.FileName, err)
		return retryLater
	}

	logging.Warnf("Transmission [%s] has been rejected and will be deleted: %v", tr.FileName, err)
	s.storage.Delete(ctx, tr)
	return discarded
}

//Close stops the background loop and the worker pool
func (s *Sender) Close() {
	if !s.closed.CAS(false, true) {
		return
	}

	s.cancel()
	s.passMu.Lock()
	s.pool.Release()
	s.passMu.Unlock()
}
