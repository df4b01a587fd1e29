// Package notify hands password reset requests to a delivery channel.
package notify

import (
	"context"
	"time"

	"github.com/dmitrijs2005/refkeeper/internal/logging"
)

// PasswordResetMessage is the payload handed to the delivery channel.
type PasswordResetMessage struct {
	UserID     int64     `json:"userId"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	ResetToken string    `json:"resetToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Notifier delivers password reset messages.
type Notifier interface {
	NotifyPasswordReset(ctx context.Context, msg PasswordResetMessage) error
	Close() error
}

// LogNotifier only records that a reset was requested. The token itself is
// not logged.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{logger: l.With("module", "log_notifier")}
}

func (n *LogNotifier) NotifyPasswordReset(ctx context.Context, msg PasswordResetMessage) error {
	n.logger.Info(ctx, "password reset requested", "user_id", msg.UserID, "expires_at", msg.ExpiresAt)
	return nil
}

func (n *LogNotifier) Close() error { return nil }
