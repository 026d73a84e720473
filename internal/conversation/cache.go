// Package conversation maintains the per-thread in-memory message history.
// Histories are hydrated from the remote service when a thread is selected
// and appended to as submissions complete. A history is only ever appended
// to or wholesale-replaced by Hydrate; existing entries are never reordered
// or mutated.
package conversation

import (
	"context"
	"sync"

	"mmchat/internal/logger"
	"mmchat/pkg/chattypes"
)

// Cache is the per-thread ordered message history. It satisfies
// chattypes.Hydrator so the thread store can signal it on selection.
type Cache struct {
	mu      sync.Mutex
	fetcher chattypes.HistoryFetcher

	histories map[string][]chattypes.Message
}

// NewCache creates a cache that loads thread histories through fetcher.
func NewCache(fetcher chattypes.HistoryFetcher) *Cache {
	return &Cache{
		fetcher:   fetcher,
		histories: make(map[string][]chattypes.Message),
	}
}

// Hydrate fetches the message history for threadID and replaces the
// in-memory history for that thread. On fetch failure the previously cached
// history (if any) is left untouched and the error is reported upward.
func (c *Cache) Hydrate(ctx context.Context, threadID string) error {
	messages, err := c.fetcher.FetchThread(ctx, threadID)
	if err != nil {
		logger.Warn("thread history fetch failed, keeping cached history", "thread", threadID, "error", err)
		return err
	}

	c.mu.Lock()
	c.histories[threadID] = append([]chattypes.Message(nil), messages...)
	c.mu.Unlock()

	logger.Debug("thread hydrated", "thread", threadID, "messages", len(messages))
	return nil
}

// Append adds messages to the end of the thread's history in the order
// given. The thread need not have been hydrated first.
func (c *Cache) Append(threadID string, messages ...chattypes.Message) {
	if len(messages) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.histories[threadID] = append(c.histories[threadID], messages...)
}

// Get returns a copy of the current in-memory history for threadID, empty
// if the thread was never hydrated or appended to.
func (c *Cache) Get(threadID string) []chattypes.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chattypes.Message(nil), c.histories[threadID]...)
}
