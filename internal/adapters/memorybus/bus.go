package memorybus

import (
	"strings"
	"sync"

	"github.com/Guilhem-Bonnet/rmg/internal/ports"
)

const subscriberBuffer = 64

type subscriber struct {
	prefix string
	ch     chan ports.Event
}

// Bus diffuse les events en mémoire à tous les abonnés dont le préfixe correspond.
type Bus struct {
	mu    sync.Mutex
	subs  map[*subscriber]struct{}
	alive bool
}

func New() *Bus {
	return &Bus{subs: make(map[*subscriber]struct{}), alive: true}
}

func (b *Bus) Publish(topic string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	evt := ports.Event{Topic: topic, Payload: payload}
	for sub := range b.subs {
		if sub.prefix != "" && !strings.HasPrefix(topic, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// drop si l'abonné est trop lent
		}
	}
}

func (b *Bus) Subscribe(prefix string) (<-chan ports.Event, func()) {
	sub := &subscriber{prefix: prefix, ch: make(chan ports.Event, subscriberBuffer)}
	b.mu.Lock()
	if !b.alive {
		close(sub.ch)
		b.mu.Unlock()
		return sub.ch, func() {}
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub.ch)
		}
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

// Close ferme tous les abonnements; les Publish suivants sont ignorés.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	b.alive = false
	for sub := range b.subs {
		close(sub.ch)
	}
	b.subs = map[*subscriber]struct{}{}
}
