package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmchat/pkg/chattypes"
)

type fakeFetcher struct {
	histories map[string][]chattypes.Message
	err       error
}

func (f *fakeFetcher) FetchThread(_ context.Context, threadID string) ([]chattypes.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.histories[threadID], nil
}

func TestCache_HydrateReplacesHistory(t *testing.T) {
	fetcher := &fakeFetcher{histories: map[string][]chattypes.Message{
		"t1": {
			{Role: chattypes.RoleUser, Content: "hello"},
			{Role: chattypes.RoleAssistant, Content: "hi"},
		},
	}}
	cache := NewCache(fetcher)

	cache.Append("t1", chattypes.Message{Role: chattypes.RoleUser, Content: "stale"})
	require.NoError(t, cache.Hydrate(context.Background(), "t1"))

	history := cache.Get("t1")
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "hi", history[1].Content)
}

func TestCache_HydrateFailureKeepsCachedHistory(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := NewCache(fetcher)

	cache.Append("t1", chattypes.Message{Role: chattypes.RoleUser, Content: "kept"})

	fetcher.err = errors.New("network down")
	err := cache.Hydrate(context.Background(), "t1")
	require.Error(t, err)

	history := cache.Get("t1")
	require.Len(t, history, 1)
	assert.Equal(t, "kept", history[0].Content)
}

func TestCache_AppendPreservesOrder(t *testing.T) {
	cache := NewCache(&fakeFetcher{})

	cache.Append("t1",
		chattypes.Message{Role: chattypes.RoleUser, Content: "one"},
		chattypes.Message{Role: chattypes.RoleAssistant, Content: "two"},
	)
	cache.Append("t1", chattypes.Message{Role: chattypes.RoleUser, Content: "three"})

	history := cache.Get("t1")
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Content)
	assert.Equal(t, "two", history[1].Content)
	assert.Equal(t, "three", history[2].Content)
}

func TestCache_GetUnknownThreadIsEmpty(t *testing.T) {
	cache := NewCache(&fakeFetcher{})
	assert.Empty(t, cache.Get("never-hydrated"))
}

func TestCache_GetReturnsCopy(t *testing.T) {
	cache := NewCache(&fakeFetcher{})
	cache.Append("t1", chattypes.Message{Role: chattypes.RoleUser, Content: "original"})

	history := cache.Get("t1")
	history[0].Content = "mutated"

	assert.Equal(t, "original", cache.Get("t1")[0].Content)
}
