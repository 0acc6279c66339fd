package llm

import (
	"context"
	"time"
)

// Observer receives a notification after every provider call, successful or
// not. Implementations must be safe for concurrent use since chunks may be
// cleaned in parallel, and should not block.
type Observer interface {
	OnLLMCall(ctx context.Context, event CallEvent)
}

// CallEvent describes one provider call.
type CallEvent struct {
	Provider  string
	Model     string // Model reported by the provider, or the configured one on failure
	Usage     Usage
	Finish    string
	Err       error
	StartedAt time.Time
	Duration  time.Duration
	// InputChars is the total length of the request messages in bytes.
	InputChars int
}

// ObserverFunc is a convenience type for using a function as an Observer.
type ObserverFunc func(ctx context.Context, event CallEvent)

// OnLLMCall implements Observer.
func (f ObserverFunc) OnLLMCall(ctx context.Context, event CallEvent) {
	f(ctx, event)
}

// MultiObserver dispatches each event to every observer in order.
type MultiObserver []Observer

// OnLLMCall implements Observer.
func (m MultiObserver) OnLLMCall(ctx context.Context, event CallEvent) {
	for _, obs := range m {
		obs.OnLLMCall(ctx, event)
	}
}

type observedProvider struct {
	Provider
	observer Observer
}

// WithObserver wraps p so that obs sees every Execute call. A nil observer
// returns p unchanged.
func WithObserver(p Provider, obs Observer) Provider {
	if obs == nil {
		return p
	}
	return &observedProvider{Provider: p, observer: obs}
}

func (o *observedProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	event := CallEvent{
		Provider:  o.Name(),
		Model:     o.Model(),
		StartedAt: time.Now(),
	}
	for _, msg := range req.Messages {
		event.InputChars += len(msg.Content)
	}

	resp, err := o.Provider.Execute(ctx, req)
	event.Duration = time.Since(event.StartedAt)
	event.Err = err
	if resp != nil {
		event.Usage = resp.Usage
		event.Finish = resp.FinishReason
		if resp.Model != "" {
			event.Model = resp.Model
		}
	}

	o.observer.OnLLMCall(ctx, event)
	return resp, err
}
