// Package ratelimit provides a windowed admission controller for outbound
// requests. A Limiter wraps a dispatch function behind one or more token
// buckets and serves queued requests in submission order.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrLimitReached is returned under BehaviorFail when the bucket is
	// exhausted.
	ErrLimitReached = errors.New("request limit reached")

	// ErrClosed is returned for requests submitted after Close.
	ErrClosed = errors.New("limiter is closed")
)

// Behavior selects what happens to a request when the bucket is exhausted.
type Behavior string

const (
	// BehaviorEnqueue queues the request and admits it once capacity
	// frees, in FIFO order. This is the default.
	BehaviorEnqueue Behavior = "enqueue"

	// BehaviorFail rejects the request immediately with ErrLimitReached.
	BehaviorFail Behavior = "fail"

	// BehaviorDrop silently discards the request: the caller receives the
	// zero value of the response type and no error.
	BehaviorDrop Behavior = "drop"
)

// Bucket describes one admission window: at most Size requests per Window.
type Bucket struct {
	Size   int
	Window time.Duration
}

// DefaultBuckets returns the admission policy for the Donation Alerts API:
// a strict one-request-per-second cadence layered inside the documented
// 60-requests-per-minute ceiling. The inner bucket smooths bursts the outer
// bucket would otherwise admit at once.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Size: 1, Window: time.Second},
		{Size: 60, Window: time.Minute},
	}
}

// Config configures a Limiter.
type Config struct {
	// Buckets to admit through, all of which must have capacity before a
	// request dispatches. Defaults to DefaultBuckets().
	Buckets []Bucket

	// Behavior applied when no per-request behavior is given. Defaults to
	// BehaviorEnqueue.
	Behavior Behavior
}

type result[Res any] struct {
	value Res
	err   error
}

type task[Req, Res any] struct {
	ctx context.Context
	req Req
	out chan result[Res]
}

// Limiter admits requests through its buckets and hands them to the dispatch
// function. Queued requests are admitted strictly in submission order;
// dispatches themselves run concurrently once admitted.
type Limiter[Req, Res any] struct {
	dispatch func(context.Context, Req) (Res, error)
	behavior Behavior
	buckets  []*rate.Limiter

	queue chan task[Req, Res]
	done  chan struct{}
	once  sync.Once
}

// New creates a limiter around the given dispatch function.
func New[Req, Res any](cfg Config, dispatch func(context.Context, Req) (Res, error)) *Limiter[Req, Res] {
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = DefaultBuckets()
	}
	behavior := cfg.Behavior
	if behavior == "" {
		behavior = BehaviorEnqueue
	}

	l := &Limiter[Req, Res]{
		dispatch: dispatch,
		behavior: behavior,
		buckets:  make([]*rate.Limiter, len(buckets)),
		queue:    make(chan task[Req, Res], 128),
		done:     make(chan struct{}),
	}
	for i, b := range buckets {
		perSecond := float64(b.Size) / b.Window.Seconds()
		l.buckets[i] = rate.NewLimiter(rate.Limit(perSecond), b.Size)
	}

	go l.run()
	return l
}

// Do submits a request under the limiter's default behavior.
func (l *Limiter[Req, Res]) Do(ctx context.Context, req Req) (Res, error) {
	return l.DoWithBehavior(ctx, req, l.behavior)
}

// DoWithBehavior submits a request with an explicit overflow behavior.
func (l *Limiter[Req, Res]) DoWithBehavior(ctx context.Context, req Req, behavior Behavior) (Res, error) {
	var zero Res

	switch behavior {
	case BehaviorEnqueue:
		select {
		case <-l.done:
			return zero, ErrClosed
		default:
		}

		t := task[Req, Res]{ctx: ctx, req: req, out: make(chan result[Res], 1)}
		select {
		case l.queue <- t:
		case <-l.done:
			return zero, ErrClosed
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		// The worker only drains tasks that were in the queue when it
		// observed the shutdown. If Close raced the enqueue, the task may
		// sit in the buffer with nobody left to serve it, so settle now
		// instead of waiting on a response that will never come.
		select {
		case <-l.done:
			select {
			case res := <-t.out:
				return res.value, res.err
			default:
				return zero, ErrClosed
			}
		default:
		}

		select {
		case res := <-t.out:
			return res.value, res.err
		case <-ctx.Done():
			return zero, ctx.Err()
		}

	case BehaviorFail:
		if !l.tryAdmit() {
			return zero, ErrLimitReached
		}
		return l.dispatch(ctx, req)

	case BehaviorDrop:
		if !l.tryAdmit() {
			return zero, nil
		}
		return l.dispatch(ctx, req)

	default:
		return zero, errors.New("unknown limit behavior: " + string(behavior))
	}
}

// Close stops the admission worker. Requests already waiting in the queue
// fail with ErrClosed.
func (l *Limiter[Req, Res]) Close() {
	l.once.Do(func() { close(l.done) })
}

// run is the admission worker. Taking tasks off the queue one at a time and
// waiting on every bucket before starting the dispatch preserves submission
// order.
func (l *Limiter[Req, Res]) run() {
	for {
		select {
		case <-l.done:
			l.drain()
			return
		case t := <-l.queue:
			if err := l.waitAll(t.ctx); err != nil {
				t.out <- result[Res]{err: err}
				continue
			}
			go func(t task[Req, Res]) {
				value, err := l.dispatch(t.ctx, t.req)
				t.out <- result[Res]{value: value, err: err}
			}(t)
		}
	}
}

func (l *Limiter[Req, Res]) drain() {
	for {
		select {
		case t := <-l.queue:
			t.out <- result[Res]{err: ErrClosed}
		default:
			return
		}
	}
}

// waitAll blocks until every bucket has admitted one request.
func (l *Limiter[Req, Res]) waitAll(ctx context.Context) error {
	for _, bucket := range l.buckets {
		if err := bucket.Wait(ctx); err != nil {
			return err
		}
	}
	select {
	case <-l.done:
		return ErrClosed
	default:
		return nil
	}
}

// tryAdmit consumes one token from every bucket if all have capacity right
// now, and none otherwise.
func (l *Limiter[Req, Res]) tryAdmit() bool {
	now := time.Now()
	taken := make([]*rate.Reservation, 0, len(l.buckets))
	for _, bucket := range l.buckets {
		r := bucket.ReserveN(now, 1)
		if !r.OK() || r.DelayFrom(now) > 0 {
			r.CancelAt(now)
			for _, prev := range taken {
				prev.CancelAt(now)
			}
			return false
		}
		taken = append(taken, r)
	}
	return true
}
