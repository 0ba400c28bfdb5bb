package sirc

import (
	"context"
	"sync"
	"time"
)

// DefaultFlushInterval is the delay between two queued lines, which keeps
// the client under the chat service's message rate limit.
const DefaultFlushInterval = 1500 * time.Millisecond

// outboundQueue is a FIFO of serialized lines.
// There is no capacity bound: producers never block and nothing is dropped,
// lines simply wait for their tick.
type outboundQueue struct {
	mu    sync.Mutex
	lines [][]byte
}

func (q *outboundQueue) push(line []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lines = append(q.lines, line)
	queueDepth.Inc()
}

// pop removes and returns the oldest line, if any.
func (q *outboundQueue) pop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.lines) == 0 {
		return nil, false
	}
	line := q.lines[0]
	q.lines[0] = nil
	q.lines = q.lines[1:]
	queueDepth.Dec()
	return line, true
}

func (q *outboundQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}

// discard drops every pending line.
func (q *outboundQueue) discard() {
	q.mu.Lock()
	defer q.mu.Unlock()
	queueDepth.Sub(float64(len(q.lines)))
	q.lines = nil
}

// flusher drains the queue one line per tick, and only while ready reports true.
type flusher struct {
	queue *outboundQueue
	ready func() bool
	send  func([]byte) error
}

// tick sends at most one line. It is a no-op when the server is not ready
// or the queue is empty. A line that fails to send is not requeued.
func (f *flusher) tick() error {
	if !f.ready() {
		return nil
	}
	line, ok := f.queue.pop()
	if !ok {
		return nil
	}
	return f.send(line)
}

// run calls tick every interval until ctx is done or a send fails.
func (f *flusher) run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := f.tick(); err != nil {
				return err
			}
		}
	}
}
