package recognizer

import "sync"

// Pending is the single-shot handle for an outstanding request.
type Pending struct {
	ID string

	done       chan Result
	finish     chan struct{}
	finishOnce sync.Once
	resolve    sync.Once
	cancel     func()
}

// NewPending returns an unresolved handle. cancel may be nil.
func NewPending(id string, cancel func()) *Pending {
	return &Pending{
		ID:     id,
		done:   make(chan Result, 1),
		finish: make(chan struct{}),
		cancel: cancel,
	}
}

// Done yields the result once, then never again.
func (p *Pending) Done() <-chan Result { return p.done }

// Finish ends listening early. The request still produces its result.
func (p *Pending) Finish() {
	p.finishOnce.Do(func() { close(p.finish) })
}

func (p *Pending) Finishing() <-chan struct{} { return p.finish }

// Cancel abandons the request; it resolves with StatusCanceled.
func (p *Pending) Cancel() {
	if p.cancel != nil {
		p.cancel()
		return
	}
	p.Resolve(Result{Status: StatusCanceled})
}

// Resolve delivers r. Only the first call has any effect.
func (p *Pending) Resolve(r Result) {
	p.resolve.Do(func() {
		r.RequestID = p.ID
		p.done <- r
	})
}
