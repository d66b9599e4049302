package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	SessionID string `json:"session_id"`
	Score     int    `json:"score"`
}

func TestMemoryCacheRoundTripAndExpiry(t *testing.T) {
	c := NewMemoryCache()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, ReportKey("s1"), report{SessionID: "s1", Score: 80}, ReportTTL))

	var got report
	hit, err := c.GetJSON(ctx, "interview:summary:s1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 80, got.Score)

	base = base.Add(ReportTTL + time.Second)
	hit, err = c.GetJSON(ctx, ReportKey("s1"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCacheDel(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, c.SetJSON(ctx, "k", 1, 0))
	require.NoError(t, c.Del(ctx, "k", "missing"))

	var v int
	hit, _ := c.GetJSON(ctx, "k", &v)
	assert.False(t, hit)
}
