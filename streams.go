// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

// Streams compose the connection fabric, MPSC queues and signals into a
// many-to-many data channel. Each consumer owns a bounded queue and a
// receive signal; a producer fans every pushed value out to the queue of
// every connected consumer and notifies its signal.

type streamChannel[T any] struct {
	q  *MPSC[T]
	io *Signal
}

// StreamProducer pushes values to every connected StreamConsumer.
//
// A single producer endpoint is single-goroutine, but any number of
// producer endpoints may be connected to the same consumer and used
// from different goroutines; the consumer's queue admits them all.
type StreamProducer[T any] struct {
	*Client[streamChannel[T]]
}

// NewStreamProducer creates an unconnected producer.
func NewStreamProducer[T any]() *StreamProducer[T] {
	return &StreamProducer[T]{Client: NewClient[streamChannel[T]]()}
}

// Push offers value to every connected consumer and notifies those that
// accepted it. A consumer whose queue is full misses the value.
//
// Progress: lock-free.
func (p *StreamProducer[T]) Push(value T) {
	p.Each(func(ch *streamChannel[T]) bool {
		v := value
		if ch.q.Enqueue(&v) == nil {
			ch.io.Notify()
		}
		return true
	})
}

// PushBulk offers all of values to every connected consumer,
// all-or-nothing per consumer.
//
// Progress: lock-free.
func (p *StreamProducer[T]) PushBulk(values []T) {
	p.Each(func(ch *streamChannel[T]) bool {
		if ch.q.EnqueueBulk(values) == nil {
			ch.io.Notify()
		}
		return true
	})
}

// StreamConsumer owns a bounded queue filled by connected
// StreamProducers.
//
// A consumer endpoint is single-goroutine.
type StreamConsumer[T any] struct {
	*Server[streamChannel[T]]
}

// NewStreamConsumer creates a consumer with a queue of at least the
// given capacity (rounded up to a power of 2).
// Returns ErrInvalidCapacity when capacity < 1.
func NewStreamConsumer[T any](capacity int) (*StreamConsumer[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if capacity < 2 {
		capacity = 2
	}

	sig, err := NewSignal()
	if err != nil {
		return nil, err
	}

	ch := &streamChannel[T]{q: NewMPSC[T](capacity), io: sig}
	return &StreamConsumer[T]{Server: NewServerShared(ch)}, nil
}

// Pop removes and returns the oldest value.
// Returns ErrWouldBlock when the queue is empty.
//
// Progress: wait-free.
func (c *StreamConsumer[T]) Pop() (T, error) {
	return c.Data().q.Dequeue()
}

// PopBulk fills out completely, or not at all.
// Returns ErrWouldBlock when fewer than len(out) values are queued.
//
// Progress: wait-free.
func (c *StreamConsumer[T]) PopBulk(out []T) error {
	return c.Data().q.DequeueBulk(out)
}

// Empty reports whether the queue holds no values.
func (c *StreamConsumer[T]) Empty() bool {
	return c.Data().q.Empty()
}

// Cap returns the queue capacity.
func (c *StreamConsumer[T]) Cap() int {
	return c.Data().q.Cap()
}

// ReceiveEvent returns the momentary event activated by each accepted
// push.
func (c *StreamConsumer[T]) ReceiveEvent() Event {
	return c.Data().io.Event()
}

// Close disconnects every producer and releases the receive signal.
func (c *StreamConsumer[T]) Close() error {
	ch := c.Data()
	c.Server.Close()
	return ch.io.Close()
}

// ConnectStream connects a producer to a consumer.
// Connecting an already-connected pair has no effect.
func ConnectStream[T any](p *StreamProducer[T], c *StreamConsumer[T]) {
	Connect(p.Client, c.Server)
}

// DisconnectStream removes the connection between a producer and a
// consumer. No effect when they are not connected.
func DisconnectStream[T any](p *StreamProducer[T], c *StreamConsumer[T]) {
	Disconnect(p.Client, c.Server)
}
