package event

import (
	"sync"

	"go.uber.org/zap"
)

type Type string

const (
	AssessmentCompleted Type = "assessment_completed"
	LessonCompleted     Type = "lesson_completed"
	UserReturn          Type = "user_return"
)

// Event 领域事件。评分与进度代码只发布事件，不直接依赖推荐组件。
type Event struct {
	Type         Type
	UserID       uint
	AssessmentID uint
	CourseID     uint
	LessonID     uint
	WeakTopics   []string
	Percentage   int
}

type Handler func(Event)

// Bus 进程内异步事件总线。处理器在独立 goroutine 中执行，panic 只记日志。
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	log      *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
		log:      log,
	}
}

func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.Type]
	b.mu.RUnlock()

	for _, h := range handlers {
		go b.dispatch(h, e)
	}
}

func (b *Bus) dispatch(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil && b.log != nil {
			b.log.Error("event handler panic",
				zap.String("event", string(e.Type)),
				zap.Any("panic", r))
		}
	}()
	h(e)
}
