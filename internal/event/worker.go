package event

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type worker struct {
	mu            sync.RWMutex
	subscriptions map[string][]func(event Queueable)
}

var (
	instance = &worker{
		subscriptions: map[string][]func(event Queueable){},
	}
	l = log.WithField("context", "event_worker")
)

func Subscribe(eventType string, fn func(event Queueable)) {
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.subscriptions[eventType] = append(instance.subscriptions[eventType], fn)
}

func RunWorker() context.CancelFunc {
	ctx, cancelFunc := context.WithCancel(context.Background())
	instance.Run(ctx)
	return cancelFunc
}

func (w *worker) Run(ctx context.Context) {
	done := ctx.Done()

	go func() {
		l.Trace("events runner go")
		for {
			select {
			case <-done:
				l.Info("shutting down event worker by cancelled context")
				return
			default:
			}

			event := Bus.dequeue()
			if event == nil {
				time.Sleep(time.Millisecond)
				continue
			}
			if event.Expired() || event.IsDropped() {
				continue
			}

			w.mu.RLock()
			subscribers := w.subscriptions[event.Type()]
			w.mu.RUnlock()
			if len(subscribers) == 0 {
				// No consumer yet; keep the event until it expires.
				Bus.Enqueue(event)
				time.Sleep(time.Millisecond)
				continue
			}
			for _, sub := range subscribers {
				sub(event)
				if event.IsDropped() {
					break
				}
			}
			if !event.IsProcessed() && !event.IsDropped() {
				Bus.Enqueue(event)
			}
		}
	}()
}
