package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/BlindList/internal/metrics"
)

// Message is one queued delivery.
type Message struct {
	To     string
	Kind   Kind
	Params Params
}

// DispatcherConfig sizes the queue and worker pool.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher delivers messages in the background so that request handlers
// never wait on, or observe the outcome of, a delivery. Failures are logged
// and counted.
type Dispatcher struct {
	cfg       DispatcherConfig
	sender    Sender
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	ch        chan Message
	done      chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewDispatcher starts cfg.Workers goroutines draining a queue of cfg.QueueSize.
func NewDispatcher(cfg DispatcherConfig, sender Sender, logger *logrus.Logger, m *metrics.Metrics) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}

	d := &Dispatcher{
		cfg:     cfg,
		sender:  sender,
		logger:  logger,
		metrics: m,
		ch:      make(chan Message, cfg.QueueSize),
		done:    make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.ch:
			d.deliver(msg)
		case <-d.done:
			for {
				select {
				case msg := <-d.ch:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	err := d.sender.Send(ctx, msg.To, msg.Kind, msg.Params)
	if err != nil {
		d.metrics.Notifications.WithLabelValues(string(msg.Kind), "failed").Inc()
		d.logger.WithFields(logrus.Fields{
			"template": msg.Kind,
			"error":    err,
		}).Error("Failed to deliver notification")
		return
	}
	d.metrics.Notifications.WithLabelValues(string(msg.Kind), "sent").Inc()
}

// Enqueue queues msg without blocking. It returns false when the message was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.closed {
		select {
		case d.ch <- msg:
			return true
		default:
		}
	}
	d.dropped(msg)
	return false
}

func (d *Dispatcher) dropped(msg Message) {
	d.metrics.NotificationsDropped.Inc()
	d.logger.WithField("template", msg.Kind).Error("Notification queue full, message dropped")
}

// Close stops accepting messages, delivers what is queued and waits for the workers.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.done)
		d.mu.Unlock()
		d.wg.Wait()
	})
}
