package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stretchr/testify/require"
)

func TestProctorEventRepositoryPublish(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := NewProctorEventRepository(rdb, "exam_session_v1")
	require.Equal(t, "exam:exam_session_v1:monitor", repo.Channel())

	sub := repo.Subscribe(ctx)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	tick := model.SessionEvent{Type: model.EventTick, SessionID: "s-1", TimeRemaining: 42}
	violation := model.SessionEvent{Type: model.EventViolation, SessionID: "s-1", Reason: "tab-hidden", ViolationCount: 1}
	require.NoError(t, repo.Publish(ctx, tick))
	require.NoError(t, repo.Publish(ctx, violation))

	for _, want := range []model.SessionEvent{tick, violation} {
		msgCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		msg, err := sub.ReceiveMessage(msgCtx)
		cancel()
		require.NoError(t, err)

		var got model.SessionEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		require.Equal(t, want.Type, got.Type)
		require.Equal(t, want.TimeRemaining, got.TimeRemaining)
	}

	queued, err := rdb.LRange(ctx, config.WorkerKey.PersistViolationsQueue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, queued, 1)
	require.Contains(t, queued[0], `"reason":"tab-hidden"`)
}
