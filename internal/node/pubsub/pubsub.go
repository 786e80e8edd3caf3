package pubsub

type Publisher[E any] interface {
	PublishEvent(E) error
	AddSubscriber(Subscriber[E])
}

type Subscriber[E any] interface {
	Name() string
	ConsumeEvent(E) error
}

// SimplePublisher hands events straight to a channel. The channel's listen
// loop is what fans events out to subscribers, one at a time, in the order
// they were published.
type SimplePublisher[E any] struct {
	channel *SimpleChannel[E]
}

func NewSimplePublisher[E any](channel *SimpleChannel[E]) *SimplePublisher[E] {
	return &SimplePublisher[E]{
		channel: channel,
	}
}

func (p *SimplePublisher[E]) PublishEvent(e E) error {
	return p.channel.push(e)
}

func (p *SimplePublisher[E]) AddSubscriber(s Subscriber[E]) {
	p.channel.AddSubscriber(s)
}
