package eventpublisher

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSink(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pub, err := NewSink(SinkLog, nil, "", zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, pub)

	pub, err = NewSink(SinkRedis, client, "ledger", zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &RedisStreamPublisher{}, pub)
	assert.Equal(t, "ledger", pub.(*RedisStreamPublisher).stream)

	_, err = NewSink(SinkRedis, nil, "", zerolog.Nop())
	assert.Error(t, err)

	_, err = NewSink("kafka", client, "", zerolog.Nop())
	assert.Error(t, err)
}
