// Package notify delivers trade and session alerts to operators.
package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Level string

const (
	Info     Level = "INFO"
	Warning  Level = "WARNING"
	Critical Level = "CRITICAL"
)

type Alert struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Alertf builds an Alert with a formatted message.
func Alertf(level Level, title, format string, args ...any) Alert {
	return Alert{Level: level, Title: title, Message: fmt.Sprintf(format, args...)}
}

func (a Alert) String() string {
	return fmt.Sprintf("[%s] %s: %s", a.Level, a.Title, a.Message)
}

// Notifier delivers an alert.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// Log writes alerts to the logger.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

func (n *Log) Send(_ context.Context, a Alert) error {
	fields := []zap.Field{zap.String("level", string(a.Level)), zap.String("title", a.Title)}
	switch a.Level {
	case Critical:
		n.log.Error(a.Message, fields...)
	case Warning:
		n.log.Warn(a.Message, fields...)
	default:
		n.log.Info(a.Message, fields...)
	}
	return nil
}

// Multi fans an alert out to several notifiers and returns the first error.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, a Alert) error {
	var first error
	for _, n := range m {
		if err := n.Send(ctx, a); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Dispatcher sends alerts from a background goroutine so callers never
// block on delivery. Alerts that do not fit in the queue are dropped and
// logged.
type Dispatcher struct {
	n     Notifier
	log   *zap.Logger
	queue chan Alert

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(n Notifier, log *zap.Logger, size int) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	d := &Dispatcher{
		n:     n,
		log:   log,
		queue: make(chan Alert, size),
		done:  make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for a := range d.queue {
		if err := d.n.Send(context.Background(), a); err != nil {
			d.log.Warn("notification failed",
				zap.String("title", a.Title),
				zap.Error(err))
		}
	}
}

// Notify enqueues an alert and returns immediately.
func (d *Dispatcher) Notify(a Alert) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- a:
	default:
		d.log.Warn("notification dropped", zap.String("title", a.Title))
	}
}


// Close stops accepting alerts and waits for queued ones to be sent or ctx
// to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
