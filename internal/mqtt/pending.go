package mqtt

import "log"

// pendingMsg is a publish held back while the broker is unreachable.
type pendingMsg struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// pendingQueue is a fixed-capacity FIFO of publishes attempted while
// disconnected, replayed on reconnect. When full, the oldest message
// is dropped: for retained state publishes only the newest matters.
// Not safe for concurrent use; the caller synchronizes.
type pendingQueue struct {
	msgs []pendingMsg
	max  int
}

func newPendingQueue(max int) *pendingQueue {
	return &pendingQueue{max: max}
}

func (q *pendingQueue) push(m pendingMsg) {
	if len(q.msgs) == q.max {
		log.Printf("mqtt: pending queue full (%d), dropping oldest publish to %s", q.max, q.msgs[0].topic)
		copy(q.msgs, q.msgs[1:])
		q.msgs = q.msgs[:len(q.msgs)-1]
	}
	q.msgs = append(q.msgs, m)
}

// drain returns all queued messages in order and empties the queue.
func (q *pendingQueue) drain() []pendingMsg {
	if len(q.msgs) == 0 {
		return nil
	}
	out := q.msgs
	q.msgs = nil
	return out
}

func (q *pendingQueue) len() int {
	return len(q.msgs)
}
