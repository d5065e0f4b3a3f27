package bus

import (
	"context"
	"strings"

	"github.com/yungbote/coursemarket-backend/internal/platform/envutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/realtime"
)

// Bus carries realtime messages between service instances. Every instance
// runs a forwarder that hands received messages to its local hub.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}

// New returns a redis bus when REDIS_ADDR is set and an in-process bus
// otherwise.
func New(log *logger.Logger) (Bus, error) {
	if strings.TrimSpace(envutil.String("REDIS_ADDR", "", log)) == "" {
		log.Info("REDIS_ADDR not set, using in-process realtime bus")
		return NewLocalBus(), nil
	}
	return NewRedisBus(log)
}
