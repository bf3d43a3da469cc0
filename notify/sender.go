// Package notify delivers outbound chat messages and order events.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Message is one outbound text. From is the tenant's channel sender id
// (the WhatsApp phone number id); To is the customer's channel address.
type Message struct {
	TenantID string
	From     string
	To       string
	Text     string
}

type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Dispatcher sends messages in the background. Failures are logged and never
// reach the caller.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	log     *logrus.Entry
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, timeout time.Duration, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{sender: sender, timeout: timeout, log: log}
}

// Dispatch is fire-and-forget.
func (d *Dispatcher) Dispatch(msg Message, fields logrus.Fields) {
	if msg.To == "" {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		id, err := d.sender.Send(ctx, msg)
		entry := d.log.WithFields(fields).WithField("tenant_id", msg.TenantID)
		if err != nil {
			entry.WithError(err).Warn("notification not delivered")
			return
		}
		entry.WithField("message_id", id).Debug("notification sent")
	}()
}

// Wait blocks until in-flight notifications finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// LogSender only logs messages. Used when no channel credentials are set.
type LogSender struct {
	Log *logrus.Entry
}

func (s LogSender) Send(_ context.Context, msg Message) (string, error) {
	s.Log.WithFields(logrus.Fields{
		"tenant_id": msg.TenantID,
		"to":        msg.To,
	}).Info(msg.Text)
	return "", nil
}
