package pubsub

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

var errChannelClosed = errors.New("pubsub channel is closed")

// SimpleChannel is a buffered, ordered event queue. Events pushed by any
// publisher are delivered to every subscriber from a single goroutine, so
// subscribers never see two events concurrently and always see them in
// publish order.
type SimpleChannel[E any] struct {
	events chan E

	mu          sync.Mutex
	subscribers []Subscriber[E]
	closed      bool
}

func NewSimpleChannel[E any](buffer int) *SimpleChannel[E] {
	return &SimpleChannel[E]{
		events:      make(chan E, buffer),
		subscribers: make([]Subscriber[E], 0),
	}
}

func (c *SimpleChannel[E]) AddSubscriber(s Subscriber[E]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, s)
}

// push holds the lock across the send so Close cannot close the channel
// between the closed check and the send. Listen drains the channel without
// the lock, so a full buffer cannot deadlock a sender.
func (c *SimpleChannel[E]) push(e E) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errChannelClosed
	}
	c.events <- e
	return nil
}

// Listen dispatches events until Close is called. A subscriber error is
// logged and dispatch continues; a broken subscriber must not stall the
// event loop for everyone else.
func (c *SimpleChannel[E]) Listen() {
	for e := range c.events {
		c.mu.Lock()
		subscribers := make([]Subscriber[E], len(c.subscribers))
		copy(subscribers, c.subscribers)
		c.mu.Unlock()

		for _, s := range subscribers {
			if err := s.ConsumeEvent(e); err != nil {
				log.Error().Err(err).Msgf("subscriber %s failed to consume event", s.Name())
			}
		}
	}
}

func (c *SimpleChannel[E]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}
