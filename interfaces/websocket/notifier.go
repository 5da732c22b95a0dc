package websocket

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"siostam-backend/pkg/observability"
)

// Notifier turns published snapshot versions into subscriber
// broadcasts. Each version is announced at most once, and version 0,
// the startup snapshot, is never announced.
type Notifier struct {
	hub          *Hub
	metrics      *observability.Collector
	logger       *zap.Logger
	lastObserved atomic.Uint64
}

func NewNotifier(hub *Hub, metrics *observability.Collector, logger *zap.Logger) *Notifier {
	return &Notifier{
		hub:     hub,
		metrics: metrics,
		logger:  logger,
	}
}

// NotifyVersion implements the update flow's notification port.
func (n *Notifier) NotifyVersion(version uint64) {
	if version == 0 {
		return
	}

	for {
		last := n.lastObserved.Load()
		if version <= last {
			return
		}
		if n.lastObserved.CompareAndSwap(last, version) {
			break
		}
	}

	payload := []byte(fmt.Sprintf(`{"type":"graph-updated","version":%d}`, version))
	n.hub.Broadcast(payload)
	n.metrics.Notifications.Inc()
	n.logger.Info("Announced new graph version", zap.Uint64("version", version))
}
