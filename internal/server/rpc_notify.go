package server

import (
	"context"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/oscalarm/oscalarm/internal/api"
	"github.com/oscalarm/oscalarm/pkg/logger"
)

// pushTimeout bounds one notification to one client.
const pushTimeout = 2 * time.Second

// RPCNotifier maintains a set of connected jrpc2 WebSocket servers
// and broadcasts push notifications to all of them.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     logger.Logger
}

// NewRPCNotifier creates a new notifier.
func NewRPCNotifier(l logger.Logger) *RPCNotifier {
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     logger.OrNop(l),
	}
}

// Register adds a server to the broadcast set.
func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a server from the broadcast set.
func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast sends a push notification to all registered servers.
// Servers that fail to receive (e.g., disconnected) are unregistered.
func (n *RPCNotifier) Broadcast(method string, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		err := srv.Notify(ctx, method, params)
		cancel()
		if err != nil {
			n.log.Warning("push %s failed: %v", method, err)
			failed = append(failed, srv)
		}
	}

	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
}

// Count returns the number of registered servers.
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}

// PublishSettings announces a settings change.
func (n *RPCNotifier) PublishSettings(st alarm.Settings) {
	n.Broadcast(common.NotifySettingsChanged, api.SettingsToWire(st))
}

// PublishFiring announces a firing flag sent to the peer.
func (n *RPCNotifier) PublishFiring(firing bool, at time.Time) {
	n.Broadcast(common.NotifyFiring, &common.FiringNotification{Firing: firing, At: at})
}

// PublishTransition announces a phase change.
func (n *RPCNotifier) PublishTransition(tr alarm.Transition) {
	n.Broadcast(common.NotifyPhase, &common.PhaseNotification{
		From:        tr.From.String(),
		To:          tr.To.String(),
		Cause:       tr.Cause,
		SnoozeCount: tr.SnoozeCount,
		At:          tr.At,
	})
}
