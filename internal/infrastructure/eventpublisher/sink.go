package eventpublisher

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Sink names accepted by NewSink.
const (
	SinkLog   = "log"
	SinkRedis = "redis"
)

// streamMaxLen caps the Redis stream so an idle consumer cannot grow it
// without bound.
const streamMaxLen = 100_000

// NewSink builds the Publisher named by kind. The redis sink needs client.
func NewSink(kind string, client redis.Cmdable, stream string, logger zerolog.Logger) (Publisher, error) {
	switch kind {
	case SinkLog, "":
		return NewLogPublisher(logger), nil
	case SinkRedis:
		if client == nil {
			return nil, fmt.Errorf("outbox sink %q needs a redis client", kind)
		}
		return NewRedisStreamPublisher(client, stream, streamMaxLen), nil
	default:
		return nil, fmt.Errorf("unknown outbox sink %q", kind)
	}
}
