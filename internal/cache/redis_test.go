package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCache_NamespaceKey(t *testing.T) {
	cache := &Cache{}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "simple key",
			key:      "test",
			expected: "club:test",
		},
		{
			name:     "key with colon",
			key:      "archive:2024-07",
			expected: "club:archive:2024-07",
		},
		{
			name:     "empty key",
			key:      "",
			expected: "club:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := cache.namespaceKey(tt.key)
			if result != tt.expected {
				t.Errorf("namespaceKey() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCache_Disabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("Get() error = %v, want ErrCacheDisabled", err)
	}
	if err := c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("SetJSON() error = %v, want ErrCacheDisabled", err)
	}
	var out map[string]int
	if err := c.GetJSON(ctx, "k", &out); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("GetJSON() error = %v, want ErrCacheDisabled", err)
	}
	if err := c.Publish(ctx, "ch", "x"); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("Publish() error = %v, want ErrCacheDisabled", err)
	}
	if _, err := c.Subscribe(ctx, "ch"); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("Subscribe() error = %v, want ErrCacheDisabled", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on disabled cache should be nil, got %v", err)
	}
}
