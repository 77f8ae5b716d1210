package hold

import (
	"sync"
	"time"
)

// Countdown is a cancellable periodic task that ticks until its time runs out
// and then expires exactly once.
type Countdown struct {
	tick time.Duration

	mu        sync.Mutex
	remaining time.Duration
	expired   bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

// StartCountdown runs a countdown of total, decremented every tick.
// onTick receives the remaining time after each tick that does not expire.
// onExpire runs once when the remaining time reaches zero. Neither callback may
// call Stop. Either may be nil.
func StartCountdown(total, tick time.Duration, onTick func(remaining time.Duration), onExpire func()) *Countdown {
	c := &Countdown{
		tick:      tick,
		remaining: total,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go c.run(onTick, onExpire)
	return c
}

func (c *Countdown) run(onTick func(time.Duration), onExpire func()) {
	defer c.finish()

	if c.Remaining() <= 0 {
		c.expire(onExpire)
		return
	}

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
		// Stop wins over a tick that became ready at the same time.
		select {
		case <-c.stop:
			return
		default:
		}

		c.mu.Lock()
		c.remaining -= c.tick
		if c.remaining < 0 {
			c.remaining = 0
		}
		left := c.remaining
		c.mu.Unlock()

		if left > 0 {
			if onTick != nil {
				onTick(left)
			}
			continue
		}
		c.expire(onExpire)
		return
	}
}

func (c *Countdown) expire(onExpire func()) {
	c.mu.Lock()
	c.expired = true
	c.mu.Unlock()
	if onExpire != nil {
		onExpire()
	}
}

func (c *Countdown) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Stop cancels the countdown and waits until no further tick can be delivered
// and a running onExpire has returned. It is safe to call more than once.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// Remaining returns the time left as of the last tick.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the countdown ran out, as opposed to being stopped.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Done is closed once the countdown has been stopped or onExpire has returned.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
