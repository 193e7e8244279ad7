// Рассылка событий подключённым клиентам (WebSocket); состояние живёт в процессе.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Message — кадр, который получает клиент.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Publisher публикует событие после коммита изменения.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Subscriber — одно подключение. Send закрывается при Disconnect.
type Subscriber struct {
	topics map[string]bool
	send   chan []byte
	once   sync.Once
}

func (s *Subscriber) Send() <-chan []byte { return s.send }

func (s *Subscriber) wants(topic string) bool {
	return len(s.topics) == 0 || s.topics[topic]
}

// Hub хранит множество подписчиков с явными Connect/Disconnect.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buf    int
	logger *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[*Subscriber]struct{}), buf: buffer, logger: logger}
}

// Connect регистрирует подписчика; пустой список тем — все темы.
func (h *Hub) Connect(topics []string) *Subscriber {
	s := &Subscriber{topics: make(map[string]bool, len(topics)), send: make(chan []byte, h.buf)}
	for _, t := range topics {
		s.topics[t] = true
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) Disconnect(s *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	h.mu.Unlock()
	if ok {
		s.once.Do(func() { close(s.send) })
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish рассылает локально; реализует Publisher без Redis.
func (h *Hub) Publish(_ context.Context, topic string, payload any) error {
	frame, err := encode(topic, payload)
	if err != nil {
		return err
	}
	h.Broadcast(topic, frame)
	return nil
}

// Broadcast отправляет готовый кадр. Медленный подписчик с полным буфером
// отключается и должен перечитать состояние после переподключения.
func (h *Hub) Broadcast(topic string, frame []byte) {
	var slow []*Subscriber
	h.mu.RLock()
	for s := range h.subs {
		if !s.wants(topic) {
			continue
		}
		select {
		case s.send <- frame:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()
	for _, s := range slow {
		h.logger.Warn("realtime subscriber too slow, disconnecting", zap.String("topic", topic))
		h.Disconnect(s)
	}
}

func encode(topic string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", topic, err)
	}
	return json.Marshal(Message{Event: topic, Data: data})
}
