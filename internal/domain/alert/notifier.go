package alert

import "context"

// Notifier pushes operational alerts (failed sweeps and the like) to an operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop discards every alert. Used when no operator channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
