package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarais/haru-sub000/internal/model"
)

func TestEntryCacheSetGet(t *testing.T) {
	c := NewEntryCache(time.Minute)

	_, ok := c.Get("profile-1")
	assert.False(t, ok)

	entries := []model.DiaryEntry{{ID: "e1", Title: "hello"}}
	c.Set("profile-1", entries)

	got, ok := c.Get("profile-1")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)

	// Other profiles are not affected.
	_, ok = c.Get("profile-2")
	assert.False(t, ok)
}

func TestEntryCacheExpiry(t *testing.T) {
	c := NewEntryCache(30 * time.Second)

	base := time.Date(2025, 9, 17, 12, 0, 0, 0, time.UTC)
	current := base
	c.now = func() time.Time { return current }

	c.Set("profile-1", []model.DiaryEntry{{ID: "e1"}})

	current = base.Add(29 * time.Second)
	_, ok := c.Get("profile-1")
	assert.True(t, ok)

	current = base.Add(31 * time.Second)
	_, ok = c.Get("profile-1")
	assert.False(t, ok)
}

func TestEntryCacheInvalidate(t *testing.T) {
	c := NewEntryCache(time.Minute)
	c.Set("profile-1", []model.DiaryEntry{{ID: "e1"}})
	c.Set("profile-2", []model.DiaryEntry{{ID: "e2"}})

	c.Invalidate("profile-1")

	_, ok := c.Get("profile-1")
	assert.False(t, ok)
	_, ok = c.Get("profile-2")
	assert.True(t, ok)

	// Invalidating an absent key is a no-op.
	c.Invalidate("missing")
}

func TestEntryCacheDefaultTTL(t *testing.T) {
	c := NewEntryCache(0)
	assert.Equal(t, DefaultTTL, c.ttl)

	c = NewEntryCache(-time.Second)
	assert.Equal(t, DefaultTTL, c.ttl)
}
