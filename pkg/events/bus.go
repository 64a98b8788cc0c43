package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	gochannel "github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
)

// Bus carries launch events over an in-memory watermill pub/sub.
type Bus struct {
	Router     *message.Router
	Publisher  message.Publisher
	Subscriber message.Subscriber

	runOnce sync.Once
}

func NewInMemoryBus() (*Bus, error) {
	logger := watermill.NopLogger{}
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)

	r, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "new watermill router")
	}
	return &Bus{
		Router:     r,
		Publisher:  pubsub,
		Subscriber: pubsub,
	}, nil
}

// Publish emits one launch event.
func (b *Bus) Publish(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal launch event")
	}
	return b.Publisher.Publish(Topic, message.NewMessage(watermill.NewUUID(), payload))
}

// AddHandler registers a named consumer of launch events. Handlers must be
// added before Run.
func (b *Bus) AddHandler(name string, handler func(Event) error) {
	b.Router.AddNoPublisherHandler(name, Topic, b.Subscriber, func(msg *message.Message) error {
		ev, err := decode(msg.Payload)
		if err != nil {
			return err
		}
		return handler(ev)
	})
}

// Run drives the router until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	var runErr error
	b.runOnce.Do(func() {
		go func() {
			<-ctx.Done()
			_ = b.Router.Close()
		}()
		runErr = b.Router.Run(ctx)
	})
	return runErr
}

// Running is closed once the router has started all handlers.
func (b *Bus) Running() <-chan struct{} {
	return b.Router.Running()
}

func (b *Bus) Close() error {
	return b.Router.Close()
}
