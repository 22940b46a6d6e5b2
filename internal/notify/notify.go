// Package notify delivers batched change notifications. The orchestrator
// talks to the Notifier interface; the only real transport is SMTP email.
package notify

import (
	"context"

	"github.com/danbauman77/reginfo-monitor/internal/types"
)

// Notifier sends one notification for a non-empty batch of notable
// reports. It is invoked at most once per run.
type Notifier interface {
	Notify(ctx context.Context, reports []types.ChangeReport) error
}

// Nop is used when email is disabled or unconfigured: changes are still
// recorded as seen, just never delivered.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, []types.ChangeReport) error { return nil }
