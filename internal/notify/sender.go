// Package notify delivers BlindList emails: the list-links confirmation sent
// when an email is bound, and the one-time recovery link.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=sender.go -destination=mocks/sender_mock.go -package=mocks Sender

// Kind selects the message template.
type Kind string

const (
	KindListLinks    Kind = "list-links"
	KindRecoveryLink Kind = "recovery-link"
)

// ErrDisabled is returned when no mail transport is configured.
var ErrDisabled = errors.New("email delivery is not configured")

// ListLink is one list's pair of capability URLs.
type ListLink struct {
	Name       string
	CreatorURL string
	BuyerURL   string
}

// Params fills a template. Only the fields the kind uses need to be set.
type Params struct {
	HomeURL     string
	Lists       []ListLink
	RecoveryURL string
	ExpiresIn   time.Duration
}

// Sender delivers one message. A nil error means the transport accepted it.
type Sender interface {
	Send(ctx context.Context, to string, kind Kind, params Params) error
}

// DisabledSender refuses every message. It is used when SMTP is not configured
// so callers still see a delivery failure.
type DisabledSender struct {
	Logger *logrus.Logger
}

// Send implements Sender.
func (d DisabledSender) Send(_ context.Context, _ string, kind Kind, _ Params) error {
	if d.Logger != nil {
		d.Logger.WithField("template", kind).Warn("SMTP not configured, skipping email send")
	}
	return ErrDisabled
}
