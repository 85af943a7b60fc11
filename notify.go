package homework

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier delivers a text message to a person.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, message string) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// MultiNotifier sends every message through all of its notifiers. A failing
// notifier does not prevent delivery through the rest; their errors are
// combined.
type MultiNotifier []Notifier

// Notify fans message out to each notifier.
func (mn MultiNotifier) Notify(ctx context.Context, message string) error {
	var err error
	for _, n := range mn {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Notify(ctx, message))
	}
	return err
}
