// Package chattypes defines the narrow interfaces that decouple the
// conversation core from the concrete HTTP client. Components accept these
// interfaces and are handed the real client (or a test fake) by their
// constructors; there is no ambient or global state.
package chattypes

import "context"

// Generator dispatches an assembled request to the remote generation
// endpoint. This is the submission pipeline's single suspension point.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// HistoryFetcher retrieves the full message history for a thread from the
// remote service. Used by the conversation cache when a thread is selected.
type HistoryFetcher interface {
	FetchThread(ctx context.Context, threadID string) ([]Message, error)
}

// Hydrator is signalled by the thread store after a thread becomes active so
// the conversation cache can load that thread's history.
type Hydrator interface {
	Hydrate(ctx context.Context, threadID string) error
}
