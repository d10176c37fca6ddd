package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBaseWait   = 100 * time.Millisecond
	defaultMaxWait    = 5 * time.Second
)

type options struct {
	maxRetries int
	baseWait   time.Duration
	maxWait    time.Duration
	jitter     bool
}

// Option configures Do
type Option func(*options)

// WithMaxRetries sets how many times a failed call is retried. Zero means the
// function is called once.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithBaseWait sets the delay before the first retry. Each further retry
// doubles it.
func WithBaseWait(d time.Duration) Option {
	return func(o *options) {
		o.baseWait = d
	}
}

// WithMaxWait caps the delay between attempts
func WithMaxWait(d time.Duration) Option {
	return func(o *options) {
		o.maxWait = d
	}
}

// WithJitter randomizes each delay between zero and its computed value
func WithJitter(enabled bool) Option {
	return func(o *options) {
		o.jitter = enabled
	}
}

// Do calls fn until it succeeds, returns an error that is not recoverable,
// the retries are exhausted, or ctx is done. The last error from fn is
// returned.
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	o := options{
		maxRetries: defaultMaxRetries,
		baseWait:   defaultBaseWait,
		maxWait:    defaultMaxWait,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= o.maxRetries || !IsRecoverable(err) {
			return err
		}
		timer := time.NewTimer(o.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func (o options) delay(attempt int) time.Duration {
	d := o.baseWait << attempt
	if d <= 0 || (o.maxWait > 0 && d > o.maxWait) {
		d = o.maxWait
	}
	if o.jitter && d > 0 {
		d = time.Duration(rand.Int64N(int64(d) + 1))
	}
	return d
}
