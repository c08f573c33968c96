package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/stacklok/usb-ids-registry/internal/resolver"
	pkgsync "github.com/stacklok/usb-ids-registry/internal/sync"
)

// jitterFraction is the maximum random offset applied to the interval, as a fraction of it
const jitterFraction = 10

// Publisher receives every usable registry produced by a sync
type Publisher func(*resolver.FetchResult)

// Coordinator runs syncs in the background and publishes their results
type Coordinator interface {
	// Start performs an initial sync and then one per interval.
	// Blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop stops the loop and waits for Start to return
	Stop() error
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager  pkgsync.Manager
	interval time.Duration
	publish  Publisher

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// New creates a coordinator. An interval of zero performs only the initial sync.
func New(manager pkgsync.Manager, interval time.Duration, publish Publisher) Coordinator {
	return &defaultCoordinator{
		manager:  manager,
		interval: interval,
		publish:  publish,
		done:     make(chan struct{}),
	}
}

// jitteredInterval returns the interval offset by up to ±10%
func jitteredInterval(interval time.Duration) time.Duration {
	maxJitter := int64(interval) / jitterFraction
	if maxJitter <= 0 {
		return interval
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(2*maxJitter)) - time.Duration(maxJitter)
	return interval + offset
}

// Start begins background sync coordination
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting background sync coordinator", "interval", c.interval.String())

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	c.syncOnce(coordCtx)

	if c.interval <= 0 {
		<-coordCtx.Done()
		return nil
	}

	ticker := time.NewTicker(jitteredInterval(c.interval))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.syncOnce(coordCtx)
			ticker.Reset(jitteredInterval(c.interval))
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// syncOnce performs one sync and publishes its result if there is one
func (c *defaultCoordinator) syncOnce(ctx context.Context) {
	startTime := time.Now()
	result, err := c.manager.PerformSync(ctx)
	if err != nil {
		var syncErr *pkgsync.Error
		if errors.As(err, &syncErr) {
			slog.Error("Sync failed",
				"reason", syncErr.Reason,
				"duration", time.Since(startTime).String(),
				"error", syncErr.Message)
		} else {
			slog.Error("Sync failed", "error", err)
		}
	}

	// A result returned alongside an error is still usable
	if result == nil {
		return
	}
	c.publish(result)
}
