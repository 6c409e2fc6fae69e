package common

import "time"

// Network defaults.
const (
	DefaultOSCListen       = "127.0.0.1:9001"
	DefaultOSCTarget       = "127.0.0.1:9000"
	DefaultParameterPrefix = "/avatar/parameters/"
	DefaultRPCListen       = "127.0.0.1:9099"
)

// Timing defaults.
const (
	DefaultHeartbeatInterval     = 30 * time.Second
	DefaultHeartbeatInitialDelay = 5 * time.Second
	DefaultStartupSyncDelay      = 2 * time.Second
	DefaultJournalRetention      = 30 * 24 * time.Hour
)

// JSON-RPC endpoint paths.
const (
	RPCPath   = "/jsonrpc"
	RPCWSPath = "/jsonrpc/ws"
)

// JSON-RPC method names.
const (
	MethodVersion     = "system.getVersion"
	MethodStatus      = "alarm.status"
	MethodSetAlarm    = "alarm.set"
	MethodSnooze      = "alarm.snooze"
	MethodStop        = "alarm.stop"
	MethodGetTimers   = "timers.get"
	MethodSetTimers   = "timers.set"
	MethodSendParam   = "osc.send"
	MethodLoadAndSend = "settings.loadAndSend"
	MethodHistory     = "history.list"
)

// Push notification method names sent over the WebSocket endpoint.
const (
	NotifySettingsChanged = "alarm.settingsChanged"
	NotifyFiring          = "alarm.firing"
	NotifyPhase           = "alarm.phase"
)
