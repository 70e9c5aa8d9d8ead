package async

// Iterate sequentially awaits f(0), f(1), ... forwarding the first
// rejection, or resolving with the last fulfilled value once f returns a
// nil awaitable (the sentinel meaning "stop").
func Iterate[T any](f func(i int) *Awaitable[T]) *Awaitable[T] {
	return Go(func(y Yield) (T, error) {
		var last T
		for i := 0; ; i++ {
			next := f(i)
			if next == nil {
				return last, nil
			}
			v, err := Await(y, next)
			if err != nil {
				return last, err
			}
			last = v
		}
	})
}

// Retry retries f up to attempts times (attempts < 1 is treated as 1),
// resolving on the first fulfilment. If every attempt fails, it rejects
// with a MultiReasonError aggregating every attempt's reason in order.
func Retry[T any](attempts int, f func(attempt int) *Awaitable[T]) *Awaitable[T] {
	if attempts < 1 {
		attempts = 1
	}
	return Go(func(y Yield) (T, error) {
		var zero T
		reasons := make([]error, 0, attempts)
		for attempt := 0; attempt < attempts; attempt++ {
			v, err := Await(y, f(attempt))
			if err == nil {
				return v, nil
			}
			reasons = append(reasons, err)
		}
		return zero, &MultiReasonError{Reasons: reasons}
	})
}
