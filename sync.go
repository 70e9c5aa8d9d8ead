package async

// Event is a notification gate, re-grounded on awaitables from the
// teacher's Signal, which resumes watching coroutines directly instead.
//
// An Event must not be shared across loops.
type Event struct {
	waiters []*core
}

// Wait returns an awaitable that fulfils the next time Set is called.
// Calling Wait again after that returns a new awaitable waiting for the
// following Set.
func (e *Event) Wait() *Awaitable[struct{}] {
	c := newCore(nil)
	e.waiters = append(e.waiters, c)
	c.onCancel = func(reason error) {
		for i, w := range e.waiters {
			if w == c {
				e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
				break
			}
		}
	}
	return wrap[struct{}](c)
}

// Set fulfils every awaitable currently returned by Wait.
func (e *Event) Set() {
	waiters := e.waiters
	e.waiters = nil
	for _, c := range waiters {
		c.resolve(struct{}{})
	}
}

// Semaphore bounds concurrent access to a resource: callers request
// access with a given weight and release it when done. Adapted from the
// teacher's Semaphore, re-grounded on awaitables instead of coroutine
// watches.
//
// A Semaphore must not be shared across loops.
type Semaphore struct {
	size, cur int64
	waiters   []*semWaiter
}

type semWaiter struct {
	c *core
	n int64
}

// NewSemaphore creates a weighted semaphore with the given maximum
// combined weight.
func NewSemaphore(n int64) *Semaphore {
	return &Semaphore{size: n}
}

// Acquire returns an awaitable that fulfils once a weight of n has been
// acquired from the semaphore.
func (s *Semaphore) Acquire(n int64) *Awaitable[struct{}] {
	if n < 0 {
		panic("async(Semaphore): negative weight")
	}
	if s.size-s.cur >= n {
		s.cur += n
		return Resolved(struct{}{})
	}

	c := newCore(nil)
	w := &semWaiter{c: c, n: n}
	s.waiters = append(s.waiters, w)
	c.onCancel = func(reason error) { s.removeWaiter(w) }
	return wrap[struct{}](c)
}

// Release releases the semaphore of a weight of n, waking any waiter that
// can now proceed.
func (s *Semaphore) Release(n int64) {
	if n < 0 {
		panic("async(Semaphore): negative weight")
	}
	s.cur -= n
	if s.cur < 0 {
		panic("async(Semaphore): released more than held")
	}
	s.notifyWaiters()
}

func (s *Semaphore) notifyWaiters() {
	consumed := 0
	for _, w := range s.waiters {
		if s.size-s.cur < w.n {
			break
		}
		s.cur += w.n
		w.c.resolve(struct{}{})
		consumed++
	}
	s.waiters = append(s.waiters[:0], s.waiters[consumed:]...)
}

func (s *Semaphore) removeWaiter(w *semWaiter) {
	for i, o := range s.waiters {
		if o == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}

// WaitGroup is an Event with a counter, adapted from the teacher's
// WaitGroup: Add/Done update the counter, and Wait returns an awaitable
// that fulfils once it reaches zero.
type WaitGroup struct {
	event Event
	n     int
}

// Add adds delta, which may be negative, to the counter. If the counter
// becomes zero, every outstanding Wait fulfils. A negative counter panics.
func (wg *WaitGroup) Add(delta int) {
	wg.n += delta
	if wg.n < 0 {
		panic("async(WaitGroup): negative counter")
	}
	if wg.n == 0 && delta != 0 {
		wg.event.Set()
	}
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() { wg.Add(-1) }

// Wait returns an awaitable that fulfils once the counter reaches zero.
func (wg *WaitGroup) Wait() *Awaitable[struct{}] {
	if wg.n == 0 {
		return Resolved(struct{}{})
	}
	return wg.event.Wait()
}
