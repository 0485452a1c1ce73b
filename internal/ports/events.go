package ports

type EventBus interface {
	Publish(topic string, payload []byte)
	// Subscribe reçoit les events dont le topic commence par prefix ("" = tout).
	Subscribe(prefix string) (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}
