// Package async is a library for asynchronous programming: a single
// assignment value cell ([Awaitable]) with composable continuations, a
// coroutine driver that adapts ordinary sequential functions into
// suspendable ones, and coordination primitives built on top of both. The
// event loop reactor that drives timers, I/O readiness, and deferred
// callbacks lives in the sibling package, [async/loop].
//
// # Awaitables
//
// An [Awaitable] starts pending and settles exactly once, either
// fulfilled with a value or rejected with an error. [Then] and the
// [Awaitable.Then]/[Awaitable.Done] methods register continuations that
// always run later, on the owning loop's deferred queue — never
// synchronously from within resolve or reject — so that resolving an
// awaitable can never re-enter the code that resolved it.
//
// Cancellation is reference-counted: an awaitable created via Then keeps
// its parent alive as long as it might still be observed, and only once
// every such downstream claim has been released does the parent's own
// on_cancel handler run and, if it is still pending, reject it with a
// [CancellationError]. Calling Cancel on an awaitable nobody else depends
// on therefore takes effect immediately.
//
// # Coroutines
//
// Since Go has no native suspendable-generator syntax, [Go] adapts a
// plain sequential function into one using a goroutine and a pair of
// unbuffered channels: the function receives a [Yield] callback, and
// calling it suspends the driving goroutine until the awaited value (or
// an injected error) resumes it. Because it is an ordinary Go function,
// `defer` cleanup still runs on every return path, including the one
// taken after an injected cancellation error.
//
// # Combinators
//
// [All], [Any], [Choose], and [Settle] combine multiple awaitables of the
// same result type. [Map] and [Reduce] adapt a plain function into a
// continuation or fold. [Iterate] and [Retry] drive a sequence of
// awaitable-producing attempts one at a time.
//
// # Coordination
//
// [Event], [Semaphore], and [WaitGroup] are small cross-task coordination
// primitives, re-grounded on awaitables. None of them may be shared
// across loops.
package async
