package services

import (
	"context"

	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/realtime"
	"github.com/yungbote/coursemarket-backend/internal/realtime/bus"
)

type Emitter interface {
	Emit(ctx context.Context, msg realtime.Message)
}

// BusEmitter publishes on the realtime bus. A failed publish is logged and
// counted; it never fails the request that produced the event.
type BusEmitter struct {
	Bus     bus.Bus
	Log     *logger.Logger
	Metrics *observability.Metrics
}

func (e *BusEmitter) Emit(ctx context.Context, msg realtime.Message) {
	if e == nil || e.Bus == nil {
		return
	}
	if err := e.Bus.Publish(context.WithoutCancel(ctx), msg); err != nil {
		e.Metrics.IncPublishFailure(string(msg.Event))
		if e.Log != nil {
			e.Log.Warn("realtime publish failed", "event", msg.Event, "channel", msg.Channel, "error", err)
		}
	}
}

type HubEmitter struct{ Hub *realtime.Hub }

func (e *HubEmitter) Emit(_ context.Context, msg realtime.Message) {
	if e != nil && e.Hub != nil {
		e.Hub.Broadcast(msg)
	}
}
