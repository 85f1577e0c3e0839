// Package notify sends lifecycle emails without blocking request handling.
// Messages go through a bounded queue; when the queue is full they are
// dropped and logged rather than stalling a booking or webhook response.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

type Dispatcher struct {
	mailer Mailer
	logger *zap.Logger
	queue  chan Message

	stopOnce sync.Once
	done     chan struct{}
}

func NewDispatcher(mailer Mailer, queueSize int, logger *zap.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 64
	}
	return &Dispatcher{
		mailer: mailer,
		logger: logger,
		queue:  make(chan Message, queueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	go func() {
		defer close(d.done)
		for msg := range d.queue {
			if err := d.mailer.Send(msg); err != nil {
				d.logger.Error("email delivery failed",
					zap.Strings("to", msg.To),
					zap.String("subject", msg.Subject),
					zap.Error(err),
				)
			}
		}
	}()
}

// Stop closes the queue and waits for in-flight deliveries to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
}

// Enqueue hands a message to the worker. It never blocks: on a full queue the
// message is dropped with a log entry.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("notification queue full, dropping message",
			zap.Strings("to", msg.To),
			zap.String("subject", msg.Subject),
		)
	}
}
