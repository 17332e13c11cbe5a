// Package notify renders offer alerts and delivers them over email and Telegram.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrDispatch wraps every delivery failure.
var ErrDispatch = errors.New("alert dispatch failed")

// Notifier delivers one message to recipient.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

func dispatchError(channel string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDispatch, channel, err)
}

// Multi sends every message through each notifier in turn. A failing notifier is logged and
// does not stop the others; Send reports ErrDispatch only when nothing was delivered.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, recipient, subject, body string) error {
	if len(m) == 0 {
		return nil
	}

	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, recipient, subject, body); err != nil {
			logrus.WithError(err).WithField("subject", subject).Error("Failed to send alert")
			errs = append(errs, err)
		}
	}
	if len(errs) == len(m) {
		return errors.Join(errs...)
	}
	return nil
}

// Addressed pins the recipient of a notifier whose address space differs from the cycle's
// recipient, such as a Telegram chat next to an email address.
type Addressed struct {
	Notifier  Notifier
	Recipient string
}

func (a Addressed) Send(ctx context.Context, _, subject, body string) error {
	return a.Notifier.Send(ctx, a.Recipient, subject, body)
}

// Log writes alerts to the log instead of delivering them. It stands in when no channel is
// configured.
type Log struct{}

func (Log) Send(_ context.Context, recipient, subject, body string) error {
	logrus.WithFields(logrus.Fields{
		"recipient": recipient,
		"subject":   subject,
	}).Info(body)
	return nil
}
