package notify

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
)

type subscriber struct {
	ch chan *entity.Session
}

type memoryNotifier struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

// NewMemoryNotifier - in-process broker for a single authority instance.
func NewMemoryNotifier() Notifier {
	return &memoryNotifier{
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

func (that *memoryNotifier) Publish(_ context.Context, session *entity.Session) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	for sub := range that.subs[session.ID] {
		copied := *session
		offerLatest(sub.ch, &copied)
	}

	return nil
}

func (that *memoryNotifier) Subscribe(ctx context.Context, id string) (<-chan *entity.Session, error) {
	sub := &subscriber{ch: make(chan *entity.Session, 1)}

	that.mu.Lock()
	if that.subs[id] == nil {
		that.subs[id] = make(map[*subscriber]struct{})
	}
	that.subs[id][sub] = struct{}{}
	that.mu.Unlock()

	go func() {
		<-ctx.Done()

		that.mu.Lock()
		delete(that.subs[id], sub)
		if len(that.subs[id]) == 0 {
			delete(that.subs, id)
		}
		close(sub.ch)
		that.mu.Unlock()
	}()

	return sub.ch, nil
}
