package live

import (
	"sync"

	"github.com/google/uuid"
)

// Типы событий ленты вопроса.
const (
	EventAnswerCreated  = "answer.created"
	EventCommentCreated = "comment.created"
	EventVoteChanged    = "vote.changed"
)

// Event - событие, отправляемое подписчикам вопроса.
type Event struct {
	Type       string `json:"type"`
	QuestionID int64  `json:"questionId"`
	Data       any    `json:"data"`
}

// Hub хранит каналы подписчиков на события вопросов.
type Hub struct {
	mu sync.RWMutex
	//   map[questionID] map[subscriberID] channel
	subs   map[int64]map[string]chan Event
	buffer int
}

// NewHub - конструктор хаба. buffer - размер очереди одного подписчика.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[int64]map[string]chan Event),
		buffer: buffer,
	}
}

// Subscribe подписывает на события вопроса. cancel нужно вызвать при отключении клиента.
func (h *Hub) Subscribe(questionID int64) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)
	subID := uuid.NewString()

	h.mu.Lock()
	if h.subs[questionID] == nil {
		h.subs[questionID] = make(map[string]chan Event)
	}
	h.subs[questionID][subID] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if questionSubs, ok := h.subs[questionID]; ok {
				delete(questionSubs, subID)
				if len(questionSubs) == 0 {
					delete(h.subs, questionID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish рассылает событие подписчикам вопроса. Мутацию не блокирует:
// если очередь подписчика заполнена, событие для него пропускается.
func (h *Hub) Publish(questionID int64, eventType string, data any) {
	event := Event{Type: eventType, QuestionID: questionID, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[questionID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers возвращает число подписчиков вопроса.
func (h *Hub) Subscribers(questionID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[questionID])
}
