package app

import (
	"encoding/json"
	"fmt"

	"github.com/Guilhem-Bonnet/rmg/internal/ports"
)

const (
	TopicGalleryChanged    = "gallery.changed"
	TopicGalleryError      = "gallery.error"
	TopicCharacterResolved = "character.resolved"
	TopicEpisodeResolved   = "episode.resolved"
)

type ErrorEvent struct {
	Op      string `json:"op"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PublishEvent encode v en JSON et le publie sur topic. Un bus nil est ignoré.
func PublishEvent(bus ports.EventBus, topic string, v any) error {
	if bus == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	bus.Publish(topic, b)
	return nil
}
