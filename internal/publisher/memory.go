package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory records published payloads in memory. Test double.
type Memory struct {
	mu       sync.Mutex
	messages map[string][][]byte
	nextID   int
}

func NewMemory() *Memory {
	return &Memory{messages: make(map[string][][]byte)}
}

func (m *Memory) Publish(ctx context.Context, topic string, payload any) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[topic] = append(m.messages[topic], data)
	m.nextID++
	return fmt.Sprintf("mem-%d", m.nextID), nil
}

// Messages returns the raw payloads published to a topic.
func (m *Memory) Messages(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.messages[topic]...)
}
