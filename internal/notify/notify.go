package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	EventSubscriptionActivated = "subscription.activated"
	EventAdPromoted            = "ad.promoted"
	EventAdReported            = "ad.reported"
)

// Event - доменное событие, о котором стоит сообщить пользователю или соседним сервисам
type Event struct {
	Type       string            `json:"type"`
	UserID     string            `json:"userId"`
	Recipient  string            `json:"-"` // email получателя, если известен
	OccurredAt time.Time         `json:"occurredAt"`
	Data       map[string]string `json:"data,omitempty"`
}

// Dispatcher доставляет события. Гарантий доставки нет.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// LogDispatcher только пишет событие в лог (dev и тесты)
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, event Event) error {
	slog.Info("notification", "event", event.Type, "user_id", event.UserID, "data", event.Data)
	return nil
}

// AsyncDispatcher отправляет в фоне, не блокируя запрос.
// Ошибки только логируются.
type AsyncDispatcher struct {
	next    Dispatcher
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncDispatcher(next Dispatcher, timeout time.Duration) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AsyncDispatcher{next: next, timeout: timeout}
}

func (d *AsyncDispatcher) Dispatch(_ context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// контекст запроса к этому моменту уже может быть отменён
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.next.Dispatch(ctx, event); err != nil {
			slog.Error("notification dispatch failed", "event", event.Type, "user_id", event.UserID, "error", err)
		}
	}()
	return nil
}

// Wait дожидается уже запущенных отправок (graceful shutdown)
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}
