package terminal

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrResolutionPending = errors.New("resolution already in progress")
	ErrResolutionTimeout = errors.New("resolution timed out")
)

// LookupFunc resolves a hostname to addresses. The default resolver
// uses net.DefaultResolver; tests substitute their own.
type LookupFunc func(ctx context.Context, host string) ([]net.IP, error)

// FoundFunc receives the resolution outcome exactly once. addr is nil
// when the hostname did not resolve.
type FoundFunc func(name string, addr net.IP)

// Resolver owns the single hostname-resolution slot. At most one
// resolution may be outstanding at a time; a concurrent Start is
// rejected rather than clobbering the pending caller's callback.
type Resolver struct {
	lookup LookupFunc

	mu   sync.Mutex
	done chan struct{}
}

func NewResolver(lookup LookupFunc) *Resolver {
	if lookup == nil {
		lookup = func(ctx context.Context, host string) ([]net.IP, error) {
			return net.DefaultResolver.LookupIP(ctx, "ip", host)
		}
	}

	return &Resolver{lookup: lookup}
}

func (r *Resolver) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.done != nil
}

// Start begins resolving hostname and arranges for found to be called
// exactly once with the outcome. Returns ErrResolutionPending while a
// previous resolution still holds the slot.
func (r *Resolver) Start(hostname string, found FoundFunc) error {
	r.mu.Lock()

	if r.done != nil {
		r.mu.Unlock()
		return ErrResolutionPending
	}

	done := make(chan struct{})
	r.done = done
	r.mu.Unlock()

	go func() {
		addrs, err := r.lookup(context.Background(), hostname)

		if err != nil || len(addrs) == 0 {
			found(hostname, nil)
		} else {
			found(hostname, addrs[0])
		}

		r.mu.Lock()
		r.done = nil
		r.mu.Unlock()

		close(done)
	}()

	return nil
}

// Wait blocks until the slot returns to idle or the timeout elapses.
// Timing out abandons the wait but does not free the slot; the pending
// callback still fires when the lookup answers.
func (r *Resolver) Wait(timeout time.Duration) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrResolutionTimeout
	}
}
