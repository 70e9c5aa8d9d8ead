package async

// Yield is the callback a coroutine body receives: calling it suspends the
// coroutine until a (settled value, injected error) resumes it, mirroring
// a generator's send/throw. It returns the awaitable's fulfilled value and
// a nil error, or a zero value and the rejection/injected error — ordinary
// Go control flow (an `if err != nil { return nil, err }` check) is then
// enough to propagate it, and any `defer` already registered in the
// calling function still runs on that return path.
type Yield func(a anyAwaitable) (any, error)

type resumeMsg struct {
	value any
	err   error
}

type yieldMsg struct {
	awaiting anyAwaitable
	done     bool
	value    any
	err      error
}

// generator adapts a plain, sequential Go function into the
// current/send/throw/valid contract using a goroutine and a pair of
// unbuffered channels: since only one side of the pair is ever runnable at
// a time, the two goroutines behave like cooperative coroutines despite
// Go having no native suspendable-function syntax.
type generator struct {
	toGen   chan resumeMsg
	fromGen chan yieldMsg

	done    bool
	pending anyAwaitable
	result  any
	err     error
}

func newGenerator(body func(Yield) (any, error)) *generator {
	g := &generator{
		toGen:   make(chan resumeMsg),
		fromGen: make(chan yieldMsg),
	}
	go g.run(body)
	g.apply(<-g.fromGen)
	return g
}

func (g *generator) run(body func(Yield) (any, error)) {
	var value any
	var err error
	if perr := guard(func() { value, err = body(g.yield) }); perr != nil {
		err = perr
	}
	g.fromGen <- yieldMsg{done: true, value: value, err: err}
}

// yield is the Yield passed into the body; it runs on the generator's own
// goroutine.
func (g *generator) yield(a anyAwaitable) (any, error) {
	g.fromGen <- yieldMsg{awaiting: a}
	in := <-g.toGen
	return in.value, in.err
}

// valid reports whether the generator is still suspended at a yield point
// (as opposed to having returned or panicked).
func (g *generator) valid() bool { return !g.done }

// send resumes the generator with value, running it until its next yield
// or its return.
func (g *generator) send(value any) {
	g.apply(g.advance(resumeMsg{value: value}))
}

// throw injects err at the generator's current yield point (the pending
// Yield call returns it as its error), running it until its next yield,
// return, or until it propagates the error back out as its own result.
func (g *generator) throw(err error) {
	g.apply(g.advance(resumeMsg{err: err}))
}

func (g *generator) advance(msg resumeMsg) yieldMsg {
	g.toGen <- msg
	return <-g.fromGen
}

func (g *generator) apply(out yieldMsg) {
	g.done = out.done
	g.result = out.value
	g.err = out.err
	if !out.done {
		g.pending = out.awaiting
	} else {
		g.pending = nil
	}
}
