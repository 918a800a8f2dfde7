// Package events fans workflow lifecycle events out to subscribers,
// most notably websocket clients of the HTTP server
package events

import (
	"sync"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/kode4food/caravan/topic"

	"github.com/weftlabs/weft/pkg/api"
)

type (
	// Hub broadcasts engine events to any number of consumers
	Hub struct {
		topic     topic.Topic[*api.Event]
		prod      topic.Producer[*api.Event]
		closeOnce sync.Once
	}

	// Consumer receives published events until closed
	Consumer = topic.Consumer[*api.Event]
)

// NewHub creates an event hub
func NewHub() *Hub {
	t := caravan.NewTopic[*api.Event]()
	return &Hub{
		topic: t,
		prod:  t.NewProducer(),
	}
}

// Publish broadcasts an event to every subscribed consumer. It is the
// engine's Notify target, so it must not block the scheduler
func (h *Hub) Publish(ev *api.Event) {
	message.Send(h.prod, ev)
}

// NewConsumer subscribes to the hub. The caller owns the consumer and
// must Close it
func (h *Hub) NewConsumer() Consumer {
	return h.topic.NewConsumer()
}

// Close shuts the hub down; consumers see their channels close
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.prod.Close()
	})
}
