package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/metrics"
	"github.com/jitsucom/crashnative/safego"
)

const defaultInitializerTimeout = 30 * time.Second

//ContextInitializer fills a part of the telemetry Context
type ContextInitializer interface {
	Name() string
	Initialize(ctx context.Context, tc *Context) error
}

//ContextProvider builds the telemetry Context once. The first Get starts initialization
//in a background goroutine; every caller waits for it or for its own ctx
type ContextProvider struct {
	initializers []ContextInitializer
	timeout      time.Duration

	once   sync.Once
	done   chan struct{}
	result *Context
}

func NewContextProvider(iKey, sdkVersion string, initializers ...ContextInitializer) *ContextProvider {
	return &ContextProvider{
		initializers: initializers,
		timeout:      defaultInitializerTimeout,
		done:         make(chan struct{}),
		result:       &Context{InstrumentationKey: iKey, SDKVersion: sdkVersion},
	}
}

//Get returns the initialized Context. Returns ctx error if ctx is done before initialization finishes
func (cp *ContextProvider) Get(ctx context.Context) (*Context, error) {
	cp.once.Do(func() {
		safego.Run(cp.initialize)
	})

	select {
	case <-cp.done:
		return cp.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

//Ready returns true if the Context has been initialized
func (cp *ContextProvider) Ready() bool {
	select {
	case <-cp.done:
		return true
	default:
		return false
	}
}

func (cp *ContextProvider) initialize() {
	defer close(cp.done)

	var multiErr error
	for _, initializer := range cp.initializers {
		if err := cp.runInitializer(initializer); err != nil {
			metrics.ContextInitializerError(initializer.Name())
			multiErr = multierror.Append(multiErr, fmt.Errorf("[%s]: %v", initializer.Name(), err))
		}
	}

	if multiErr != nil {
		logging.Errorf("Telemetry context has been initialized with errors: %v", multiErr)
	} else {
		logging.Debug("Telemetry context has been initialized")
	}
}

//runInitializer isolates initializer failures and panics. The initializer works on a copy
//of the Context which is adopted only if it finishes within the timeout
func (cp *ContextProvider) runInitializer(initializer ContextInitializer) error {
	ctx, cancel := context.WithTimeout(context.Background(), cp.timeout)
	defer cancel()

	scratch := *cp.result
	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("panic: %v", r)
			}
		}()

		result <- initializer.Initialize(ctx, &scratch)
	}()

	select {
	case err := <-result:
		if err != nil {
			return err
		}
		*cp.result = scratch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hasn't finished in %s", cp.timeout)
	}
}
