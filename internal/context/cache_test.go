package context

import (
	"context"
	"testing"
)

func TestCacheFallsBackToDirectBuildWithoutRedis(t *testing.T) {
	l := NewLoader(baseStore())
	c := NewCache(l, nil, 0)

	snap, err := c.Get(context.Background(), "p1", Limits{})
	if err != nil {
		t.Fatal(err)
	}
	if snap.ProjectInfo == nil || snap.ProjectInfo.Title != "Todo App" {
		t.Errorf("expected direct recomputation to succeed without a redis client")
	}

	// Invalidate must be a no-op, not a panic, with no client configured.
	c.Invalidate(context.Background(), "p1")
}
