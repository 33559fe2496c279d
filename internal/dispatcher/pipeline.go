package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/i474232898/watch-bridge/internal/protocol"
)

// State is the progress of a single request pipeline.
type State int32

const (
	StateIdle State = iota
	StateAwaitingPosition
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingPosition:
		return "awaiting_position"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Pipeline is a future for one reply. It completes exactly once, either with the reply that
// was sent or with the error that ended the pipeline.
type Pipeline struct {
	ID        string
	Kind      protocol.Kind
	MessageID int32

	state atomic.Int32

	ch    chan struct{}
	once  sync.Once
	mu    sync.Mutex
	reply protocol.Message
	err   error
}

func newPipeline(kind protocol.Kind, messageID int32) *Pipeline {
	return &Pipeline{
		ID:        uuid.NewString(),
		Kind:      kind,
		MessageID: messageID,
		ch:        make(chan struct{}),
	}
}

// State reports the current stage.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// complete records the outcome. Later calls are ignored.
func (p *Pipeline) complete(reply protocol.Message, err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.reply = reply
		p.err = err
		p.mu.Unlock()
		p.setState(StateCompleted)
		close(p.ch)
	})
}

// Done is closed when the pipeline has completed.
func (p *Pipeline) Done() <-chan struct{} {
	return p.ch
}

// Wait blocks until the pipeline completes or ctx is done. It returns the reply that was
// sent, or the error that terminated the pipeline.
func (p *Pipeline) Wait(ctx context.Context) (protocol.Message, error) {
	select {
	case <-p.ch:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.reply, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
