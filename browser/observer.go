package browser

import "context"

// Observer is notified after every instance resolution.
type Observer interface {
	ObserveInstance(ctx context.Context, effective Effective)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, effective Effective)

// ObserveInstance calls fn.
func (fn ObserverFunc) ObserveInstance(ctx context.Context, effective Effective) {
	if fn != nil {
		fn(ctx, effective)
	}
}

type observers []Observer

func (o observers) ObserveInstance(ctx context.Context, effective Effective) {
	for _, observer := range o {
		observer.ObserveInstance(ctx, effective)
	}
}
