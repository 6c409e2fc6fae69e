package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/api"
	"github.com/oscalarm/oscalarm/pkg/logger"
)

// Custom JSON-RPC error codes for alarm operations.
const (
	codeInvalidParams = jrpc2.Code(-32602)
	codePersist       = jrpc2.Code(-32001)
	codeTransport     = jrpc2.Code(-32002)
	codeScheduler     = jrpc2.Code(-32003)
)

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret string // Bearer token
	// AllowNoSecret accepts requests without a token when Secret is empty.
	// Only set for loopback listeners.
	AllowNoSecret bool
}

// RPCServer manages the JSON-RPC 2.0 bridge and method handlers.
type RPCServer struct {
	bridge   jhttp.Bridge
	methods  handler.Map
	secret   string
	noSecret bool
	api      *api.Api
	notifier *RPCNotifier
	log      logger.Logger
}

// NewRPCServer creates a new RPCServer with method handlers and HTTP bridge.
func NewRPCServer(cfg *RPCConfig, a *api.Api, l logger.Logger) *RPCServer {
	l = logger.OrNop(l)
	rs := &RPCServer{
		secret:   cfg.Secret,
		noSecret: cfg.AllowNoSecret,
		api:      a,
		notifier: NewRPCNotifier(l),
		log:      l,
	}

	rs.methods = handler.Map{
		common.MethodVersion:     handler.New(rs.systemGetVersion),
		common.MethodStatus:      handler.New(rs.alarmStatus),
		common.MethodSetAlarm:    handler.New(rs.alarmSet),
		common.MethodSnooze:      handler.New(rs.alarmSnooze),
		common.MethodStop:        handler.New(rs.alarmStop),
		common.MethodGetTimers:   handler.New(rs.timersGet),
		common.MethodSetTimers:   handler.New(rs.timersSet),
		common.MethodSendParam:   handler.New(rs.oscSend),
		common.MethodLoadAndSend: handler.New(rs.settingsLoadAndSend),
		common.MethodHistory:     handler.New(rs.historyList),
	}

	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

// Notifier returns the broadcaster for WebSocket clients.
func (rs *RPCServer) Notifier() *RPCNotifier {
	return rs.notifier
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*common.VersionResult, error) {
	return rs.api.Version(), nil
}

func (rs *RPCServer) alarmStatus(_ context.Context) (*common.StatusResult, error) {
	return rs.api.Status(), nil
}

func (rs *RPCServer) alarmSet(ctx context.Context, p *common.SetAlarmParams) (*common.AlarmSettings, error) {
	res, err := rs.api.SetAlarm(ctx, p)
	if err != nil {
		return nil, rpcError(err, res)
	}
	return res, nil
}

func (rs *RPCServer) alarmSnooze(_ context.Context) (*common.EmptyResult, error) {
	if err := rs.api.Snooze(); err != nil {
		return nil, rpcError(err, nil)
	}
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) alarmStop(_ context.Context) (*common.EmptyResult, error) {
	if err := rs.api.Stop(); err != nil {
		return nil, rpcError(err, nil)
	}
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) timersGet(_ context.Context) (*common.TimersResult, error) {
	return rs.api.Timers(), nil
}

func (rs *RPCServer) timersSet(ctx context.Context, p *common.SetTimersParams) (*common.TimersResult, error) {
	res, err := rs.api.SetTimers(ctx, p)
	if err != nil {
		return nil, rpcError(err, res)
	}
	return res, nil
}

func (rs *RPCServer) oscSend(ctx context.Context, p *common.SendParams) (*common.EmptyResult, error) {
	if err := rs.api.SendParameter(ctx, p); err != nil {
		return nil, rpcError(err, nil)
	}
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) settingsLoadAndSend(ctx context.Context) (*common.AlarmSettings, error) {
	res, err := rs.api.LoadAndSend(ctx)
	if err != nil {
		return nil, rpcError(err, res)
	}
	return res, nil
}

func (rs *RPCServer) historyList(ctx context.Context, p *common.HistoryParams) (*common.HistoryResult, error) {
	limit := 0
	if p != nil {
		limit = p.Limit
	}
	res, err := rs.api.History(ctx, limit)
	if err != nil {
		return nil, rpcError(err, nil)
	}
	return res, nil
}

// rpcError maps an api error onto a JSON-RPC error. When the change was
// applied but not saved or pushed, the applied value travels as data.
func rpcError(err error, applied any) *jrpc2.Error {
	e := &jrpc2.Error{Code: codeScheduler, Message: err.Error()}
	switch {
	case errors.Is(err, api.ErrInvalidParams):
		e.Code = codeInvalidParams
	case errors.Is(err, api.ErrPersist):
		e.Code = codePersist
	case errors.Is(err, api.ErrTransport):
		e.Code = codeTransport
	}
	if applied != nil {
		if data, mErr := json.Marshal(applied); mErr == nil && string(data) != "null" {
			e.Data = data
		}
	}
	return e
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
func (rs *RPCServer) Close() {
	rs.bridge.Close()
}
