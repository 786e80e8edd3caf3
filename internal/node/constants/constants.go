package constants

import "time"

const (
	// DefaultPortZapAPI is where the renderer process reaches the daemon.
	DefaultPortZapAPI = "3456"

	// DefaultRPCHost is the gRPC listener a locally supervised lnd exposes.
	// The wallet unlocker and the lightning service share this listener;
	// which one answers depends on whether the wallet has been unlocked.
	DefaultRPCHost = "localhost:10009"

	DefaultNetwork = "testnet"
	DefaultAlias   = "zap-node"

	LndBinaryName = "lnd"

	// GRPCReadyTimeout bounds how long a single connection attempt waits
	// for the gRPC channel to report ready before it is abandoned.
	GRPCReadyTimeout = 2 * time.Second

	// HostProbeTimeout bounds the pre-dial TCP reachability check.
	HostProbeTimeout = 3 * time.Second

	// ShutdownGraceDeadline is how long a graceful lnd stop may take
	// before the process is killed outright.
	ShutdownGraceDeadline = 10 * time.Second

	// SettleDelay lets closed gRPC channels fully tear down before new
	// ones are opened against the same target.
	SettleDelay = 200 * time.Millisecond

	// GetInfoPollInterval drives the periodic GetInfo refresh while the
	// lightning service is connected.
	GetInfoPollInterval = 5 * time.Second
)
