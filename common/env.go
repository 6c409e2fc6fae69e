// Package common provides the constants and JSON-RPC wire types shared by
// the oscalarm daemon and its command line client.
package common

// Environment variable names for configuration.
const (
	// ConfigDirEnv overrides the directory holding daemon.yaml, settings.json
	// and history.db.
	ConfigDirEnv = "OSCALARM_CONFIG_DIR"

	// RPCAddrEnv overrides the JSON-RPC listen address (daemon) and the
	// address dialled by the client.
	RPCAddrEnv = "OSCALARM_RPC_ADDR"

	// RPCSecretEnv sets the bearer token required by the RPC endpoint.
	RPCSecretEnv = "OSCALARM_RPC_SECRET"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "OSCALARM_DEBUG"

	// LogFileEnv sets a file the daemon appends its log to, next to stderr.
	LogFileEnv = "OSCALARM_LOG_FILE"
)
