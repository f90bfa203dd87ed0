package memory

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardCache_StorePatchLoad(t *testing.T) {
	ctx := context.Background()
	c := NewBoardCache(time.Minute)

	_, ok, err := c.Load(ctx, "m-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Store(ctx, "m-1", []*entity.Lead{{ID: "l-1", Status: "new"}}))
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, c.Patch(ctx, "m-1", "l-1", "won", at))

	leads, ok, err := c.Load(ctx, "m-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "won", leads[0].Status)
	assert.Equal(t, at, leads[0].UpdatedAt)

	require.NoError(t, c.Invalidate(ctx, "m-1"))
	_, ok, _ = c.Load(ctx, "m-1")
	assert.False(t, ok)
}

func TestBoardCache_Expira(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewBoardCache(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Store(ctx, "m-1", []*entity.Lead{{ID: "l-1"}}))
	now = now.Add(2 * time.Minute)

	_, ok, _ := c.Load(ctx, "m-1")
	assert.False(t, ok)
}

func TestPresenceBuffer_DrainConservaElUltimo(t *testing.T) {
	ctx := context.Background()
	b := NewPresenceBuffer()
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	require.NoError(t, b.Ping(ctx, "u-1", t2))
	require.NoError(t, b.Ping(ctx, "u-1", t1))

	pings, err := b.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, t2, pings["u-1"])

	pings, _ = b.Drain(ctx)
	assert.Empty(t, pings)
}
